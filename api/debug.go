package api

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/beebasmgo/beebasm/config"
)

var apiLog *log.Logger

func init() {
	if os.Getenv("BEEBASM_API_DEBUG") != "" {
		// Note: file handle intentionally not closed - kept open for process lifetime.
		logPath := filepath.Join(config.GetLogPath(), "api-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename under the platform log dir
		if err != nil {
			apiLog = log.New(os.Stderr, "API: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			apiLog = log.New(f, "API: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		apiLog = log.New(io.Discard, "", 0)
	}
}

// debugLog logs a message if debug logging is enabled.
func debugLog(format string, args ...interface{}) {
	apiLog.Printf(format, args...)
}
