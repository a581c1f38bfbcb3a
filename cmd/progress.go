package cmd

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
)

const barWidth = 30

var (
	barFilled = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	barEmpty  = lipgloss.NewStyle().Foreground(lipgloss.Color("#334155"))
)

// progressBar returns a callback drawing a single-line bar on w.
func progressBar(w io.Writer, label string) func(done, total int) {
	return func(done, total int) {
		n := 0
		if total > 0 {
			n = done * barWidth / total
		}
		fmt.Fprintf(w, "\r%s %s%s %d/%d",
			label,
			barFilled.Render(strings.Repeat("█", n)),
			barEmpty.Render(strings.Repeat("░", barWidth-n)),
			done, total)
		if done >= total {
			fmt.Fprintln(w)
		}
	}
}
