package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/beebasmgo/beebasm/api"
	"github.com/beebasmgo/beebasm/asm"
	"github.com/beebasmgo/beebasm/config"
	"github.com/beebasmgo/beebasm/console"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		evalExpr    = flag.String("eval", "", "Evaluate a single expression/statement and print the result")
		replMode    = flag.Bool("repl", false, "Start a line-oriented REPL on stdin/stdout")
		tuiMode     = flag.Bool("tui", false, "Start the terminal (tview) console")
		apiServer   = flag.Bool("api-server", false, "Start HTTP + WebSocket API server mode")
		apiPort     = flag.Int("port", 0, "API server port (used with -api-server; overrides config)")
		configPath  = flag.String("config", "", "Path to a config.toml file (default: platform config dir)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("beebasm-expr %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiPort != 0 {
		cfg.API.Port = *apiPort
	}

	switch {
	case *apiServer:
		runAPIServer(cfg)
	case *tuiMode:
		runTUI(cfg)
	case *replMode:
		runREPL(cfg)
	case *evalExpr != "":
		runEval(cfg, *evalExpr)
	default:
		printHelp()
		os.Exit(0)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// runEval assembles a single statement and prints its bytes or error.
func runEval(cfg *config.Config, text string) {
	a := asm.NewWithConfig("<eval>", cfg)
	out, err := a.Assemble([]string{text})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for i, b := range out {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Printf("&%02X", b)
	}
	fmt.Println()
}

// runREPL reads statements from stdin, one per line, assembling each
// against a persistent Assembler so labels and symbols carry forward.
func runREPL(cfg *config.Config) {
	a := asm.NewWithConfig("<repl>", cfg)
	fmt.Printf("beebasm-expr %s - type an expression or Ctrl-D to exit\n", Version)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := scanner.Text()
		if text == "" {
			continue
		}
		out, err := a.Assemble([]string{text})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if len(out) == 0 {
			fmt.Println("ok")
			continue
		}
		for i, b := range out {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Printf("&%02X", b)
		}
		fmt.Println()
	}
}

func runTUI(cfg *config.Config) {
	c := console.New(cfg)
	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		os.Exit(1)
	}
}

func runAPIServer(cfg *config.Config) {
	server := api.NewServer(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Printf(`beebasm-expr %s

Usage: beebasm-expr -eval "EXPR"
       beebasm-expr -repl
       beebasm-expr -tui
       beebasm-expr -api-server [-port N]

Options:
  -help              Show this help message
  -version           Show version information
  -eval EXPR         Evaluate one statement and print its assembled bytes
  -repl              Start a line-oriented REPL on stdin/stdout
  -tui               Start the terminal (tview) console
  -api-server        Start HTTP + WebSocket API server mode
  -port N            API server port (used with -api-server, overrides config)
  -config PATH       Path to a config.toml file (default: platform config dir)

Examples:
  beebasm-expr -eval ".EQUB 1+2*3"
  beebasm-expr -repl
  beebasm-expr -tui
  beebasm-expr -api-server -port 6502
`, Version)
}
