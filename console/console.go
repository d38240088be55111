// Package console is an interactive terminal front end for the
// expression engine: a scrollback view of every line entered and its
// result, an input line, and a live symbol-table side panel, built on
// the same tview/tcell panelling the teacher's debugger TUI uses.
package console

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/beebasmgo/beebasm/asm"
	"github.com/beebasmgo/beebasm/config"
	"github.com/beebasmgo/beebasm/expr"
)

// Console is the text user interface for entering and evaluating
// expressions/statements one line at a time.
type Console struct {
	Assembler *asm.Assembler

	App   *tview.Application
	Pages *tview.Pages

	MainLayout  *tview.Flex
	Scrollback  *tview.TextView
	SymbolsView *tview.TextView
	Input       *tview.InputField

	lineNo int
}

// New returns a Console driving its own Assembler, honoring cfg's engine
// and clock tunables.
func New(cfg *config.Config) *Console {
	c := &Console{
		Assembler: asm.NewWithConfig("console", cfg),
		App:       tview.NewApplication(),
		lineNo:    1,
	}
	c.initializeViews()
	c.buildLayout()
	c.setupKeyBindings()
	return c
}

func (c *Console) initializeViews() {
	c.Scrollback = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	c.Scrollback.SetBorder(true).SetTitle(" Expressions ")

	c.SymbolsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	c.SymbolsView.SetBorder(true).SetTitle(" Symbols ")

	c.Input = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	c.Input.SetBorder(true).SetTitle(" Input ")
	c.Input.SetDoneFunc(c.handleInput)
}

func (c *Console) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(c.Scrollback, 0, 3, false).
		AddItem(c.SymbolsView, 0, 1, false)

	c.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 4, false).
		AddItem(c.Input, 3, 0, true)

	c.Pages = tview.NewPages().
		AddPage("main", c.MainLayout, true, true)
}

func (c *Console) setupKeyBindings() {
	c.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			c.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			c.Scrollback.Clear()
			return nil
		}
		return event
	})
}

func (c *Console) handleInput(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	text := c.Input.GetText()
	if text == "" {
		return
	}
	c.Input.SetText("")
	c.evaluateLine(text)
}

// evaluateLine assembles text as one statement, writing its result (or
// the resulting symbol table change) to the scrollback, then refreshes
// the symbol panel.
func (c *Console) evaluateLine(text string) {
	fmt.Fprintf(c.Scrollback, "[yellow]%d> %s[white]\n", c.lineNo, tview.Escape(text))

	out, err := c.Assembler.Assemble([]string{text})
	if err != nil {
		fmt.Fprintf(c.Scrollback, "[red]error:[white] %v\n", err)
	} else if len(out) > 0 {
		fmt.Fprintf(c.Scrollback, "%s\n", formatBytes(out))
	} else {
		fmt.Fprintln(c.Scrollback, "ok")
	}
	c.lineNo++
	c.Scrollback.ScrollToEnd()
	c.refreshSymbols()
}

func formatBytes(b []byte) string {
	s := ""
	for i, by := range b {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("&%02X", by)
	}
	return s
}

// refreshSymbols redraws the symbol-table side panel, sorted by name.
func (c *Console) refreshSymbols() {
	c.SymbolsView.Clear()
	tab := c.Assembler.Symbols()

	names := tab.Names()
	sort.Strings(names)

	for _, name := range names {
		if v, ok := tab.Lookup(name); ok {
			fmt.Fprintf(c.SymbolsView, "%s = %s\n", name, formatValue(v))
		} else {
			fmt.Fprintf(c.SymbolsView, "[gray]%s = ?[white]\n", name)
		}
	}
}

func formatValue(v expr.Value) string {
	if v.IsString() {
		s, _ := v.AsString(0, 0)
		return fmt.Sprintf("%q", s.String())
	}
	n, _ := v.AsNumber(0, 0)
	return fmt.Sprintf("%g", n)
}

// WriteLine appends a line of plain text to the scrollback, for startup
// banners and non-interactive use.
func (c *Console) WriteLine(format string, args ...any) {
	fmt.Fprintf(c.Scrollback, format+"\n", args...)
}

// Run starts the console application.
func (c *Console) Run() error {
	c.WriteLine("[green]Expression Console[white]")
	c.WriteLine("Ctrl-C to quit, Ctrl-L to clear the scrollback")
	return c.App.SetRoot(c.Pages, true).SetFocus(c.Input).Run()
}

// Stop stops the console application.
func (c *Console) Stop() {
	c.App.Stop()
}
