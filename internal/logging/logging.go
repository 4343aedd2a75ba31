// Package logging builds the charmbracelet loggers shared by every component.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a base logger writing to w (stderr when nil). Unknown levels
// fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "polar-persona",
	})
}

// ForComponent tags every record with the component id.
func ForComponent(base *log.Logger, id string) *log.Logger {
	if base == nil {
		return Discard()
	}
	return base.With("component", id)
}

func Discard() *log.Logger {
	return log.New(io.Discard)
}
