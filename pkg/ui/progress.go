package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

const defaultBarWidth = 40

// ProgressBar draws a single-line download bar on a terminal
type ProgressBar struct {
	w        io.Writer
	bar      progress.Model
	label    string
	lastStep int
	drawn    bool
}

// NewProgressBar creates a progress bar writing to w
func NewProgressBar(w io.Writer, label string, color bool) *ProgressBar {
	opts := []progress.Option{progress.WithWidth(defaultBarWidth)}
	if color {
		opts = append(opts, progress.WithDefaultGradient())
	} else {
		opts = append(opts, progress.WithFillCharacters('#', '.'), progress.WithSolidFill(""))
	}

	return &ProgressBar{
		w:        w,
		bar:      progress.New(opts...),
		label:    label,
		lastStep: -1,
	}
}

// Update redraws the bar. total is -1 when the size is unknown.
// Redraws are limited to whole-percent changes.
func (p *ProgressBar) Update(written, total int64) {
	if total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s", p.label, FormatBytes(written))
		p.drawn = true
		return
	}

	step := int(written * 100 / total)
	if step == p.lastStep {
		return
	}
	p.lastStep = step

	percent := float64(written) / float64(total)
	if percent > 1 {
		percent = 1
	}
	fmt.Fprintf(p.w, "\r%s %s %s/%s", p.label, p.bar.ViewAs(percent), FormatBytes(written), FormatBytes(total))
	p.drawn = true
}

// Done ends the bar's line
func (p *ProgressBar) Done() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
