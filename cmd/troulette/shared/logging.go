package shared

import (
	"io"

	"github.com/charmbracelet/log"
)

// SetupLogger creates a logger at the named level. Unknown levels fall back
// to info.
func SetupLogger(w io.Writer, level string, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if debug {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}
