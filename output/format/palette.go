package format

import (
	"strings"

	"github.com/ansel1/spectang/output"
	"github.com/charmbracelet/lipgloss"
)

// Symbol constants for test results
const (
	SymbolPass   = "✓"
	SymbolFail   = "✗"
	SymbolIgnore = "⚪"
)

// Palette renders roles with lipgloss styles.
type Palette struct {
	styles map[output.Role]lipgloss.Style
}

// NewPalette builds the default palette on r. Pass lipgloss.DefaultRenderer()
// to style for stdout; the renderer decides whether colors are emitted.
func NewPalette(r *lipgloss.Renderer) *Palette {
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return &Palette{
		styles: map[output.Role]lipgloss.Style{
			output.RoleSuccess:   base.Foreground(lipgloss.Color("2")), // green
			output.RoleFailure:   base.Foreground(lipgloss.Color("1")), // red
			output.RoleIgnored:   base.Foreground(lipgloss.Color("8")), // gray
			output.RoleSecondary: base.Foreground(lipgloss.Color("8")), // gray
		},
	}
}

// Style renders every non-empty line of text separately. lipgloss pads
// multi-line blocks to a common width, which would leave trailing blanks on
// the shorter lines of a stack trace.
func (p *Palette) Style(role output.Role, text string) string {
	style, ok := p.styles[role]
	if !ok {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = ensureReset(style.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// ensureReset appends a terminal reset sequence to styled text that does not
// already end with one, so a truncated render cannot bleed color.
func ensureReset(s string) string {
	const reset = "\x1b[0m"
	if !strings.Contains(s, "\x1b[") || strings.HasSuffix(s, reset) {
		return s
	}
	return s + reset
}
