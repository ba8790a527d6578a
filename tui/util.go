package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// ensureReset ensures that the string ends with a terminal reset sequence.
// This prevents color bleeding from truncated output or output that leaves colors open.
func ensureReset(s string) string {
	if s == "" || !strings.Contains(s, "\x1b[") {
		return s
	}
	// If the string already ends with a reset sequence, don't add another one
	if strings.HasSuffix(s, "\x1b[0m") {
		return s
	}
	return s + "\x1b[0m"
}

// expandTabs replaces tab characters in a string with spaces.
// Tabs advance the cursor without overwriting, which leaves characters from
// the previous frame bleeding through.
func expandTabs(s string, tabWidth int) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteRune(r)
			col = 0
		case '\t':
			spaces := tabWidth - (col % tabWidth)
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// truncateLine cuts a line to width visible cells, keeping escape sequences
// intact.
func truncateLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(line, width, "")
}

// formatElapsedTime formats elapsed time as X.Xs below a minute and X.Xm
// from there on.
func formatElapsedTime(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 0.05 {
		return "0.0s"
	}
	if seconds >= 60 {
		return fmt.Sprintf("%.1fm", seconds/60)
	}
	return fmt.Sprintf("%.1fs", seconds)
}
