package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

// Terminal writes status lines to stderr, coloured when it is a TTY
type Terminal struct {
	out        io.Writer
	IsTerminal bool

	warn    *color.Color
	success *color.Color
	muted   *color.Color
}

// NewTerminal creates a new Terminal instance
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	t := &Terminal{
		out:        os.Stderr,
		IsTerminal: isTerminal,
		warn:       color.New(color.FgYellow),
		success:    color.New(color.FgGreen),
		muted:      color.New(color.FgHiBlack),
	}
	if !isTerminal {
		for _, c := range []*color.Color{t.warn, t.success, t.muted} {
			c.DisableColor()
		}
	}
	return t
}

// Warnings prints data-quality warnings
func (t *Terminal) Warnings(ws []dataset.DataQualityWarning) {
	for _, w := range ws {
		t.warn.Fprintf(t.out, "warning: %s\n", w)
	}
}

// Success prints a completion line
func (t *Terminal) Success(format string, args ...any) {
	t.success.Fprintf(t.out, format+"\n", args...)
}

// Note prints a secondary line
func (t *Terminal) Note(format string, args ...any) {
	t.muted.Fprintln(t.out, fmt.Sprintf(format, args...))
}
