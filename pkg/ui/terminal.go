package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	errorColor   = lipgloss.Color("#FF5F5F")
	warningColor = lipgloss.Color("#FFD75F")
	labelColor   = lipgloss.Color("#5FD7FF")
	dimColor     = lipgloss.Color("#8A8A8A")
)

// Terminal writes results to one stream and diagnostics to another.
// Results are never styled so they can be piped.
type Terminal struct {
	out   io.Writer
	err   io.Writer
	color bool

	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	labelStyle   lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewTerminal creates a terminal. Colour is only used when requested and the
// diagnostic stream is a terminal.
func NewTerminal(out, errOut io.Writer, color bool) *Terminal {
	r := lipgloss.NewRenderer(errOut)
	return &Terminal{
		out:          out,
		err:          errOut,
		color:        color && IsTerminal(errOut),
		errorStyle:   r.NewStyle().Foreground(errorColor).Bold(true),
		warningStyle: r.NewStyle().Foreground(warningColor),
		labelStyle:   r.NewStyle().Foreground(labelColor).Bold(true),
		dimStyle:     r.NewStyle().Foreground(dimColor),
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ColorEnabled reports whether diagnostics are styled
func (t *Terminal) ColorEnabled() bool {
	return t.color
}

func (t *Terminal) render(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return s.Render(text)
}

// PrintResult prints a single result line, a URL or a path
func (t *Terminal) PrintResult(line string) {
	fmt.Fprintln(t.out, line)
}

// PrintDescription prints the picture's explanation ahead of the result
func (t *Terminal) PrintDescription(text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(t.out, text)
}

// PrintError prints an error message
func (t *Terminal) PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(t.err, t.render(t.errorStyle, msg))
}

// PrintWarning prints a warning message
func (t *Terminal) PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(t.err, t.render(t.warningStyle, msg))
}

// PrintInfo prints a labelled value on the diagnostic stream
func (t *Terminal) PrintInfo(label, value string) {
	fmt.Fprintf(t.err, "%s: %s\n", t.render(t.labelStyle, label), value)
}

// PrintDim prints a low-importance note on the diagnostic stream
func (t *Terminal) PrintDim(msg string) {
	fmt.Fprintln(t.err, t.render(t.dimStyle, msg))
}
