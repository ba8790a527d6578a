package reporter

import (
	"fmt"
	"strings"

	"github.com/ansel1/spectang/output"
	"github.com/ansel1/spectang/output/format"
	"github.com/ansel1/spectang/results"
)

// Detail selects what follows the exception name of a failure.
type Detail int

const (
	// DetailStack shows the stack trace, falling back to the message.
	DetailStack Detail = iota
	// DetailMessage shows the message, falling back to the stack trace.
	DetailMessage
)

// Inspector turns a captured log value into display text.
type Inspector func(v any) string

// Inspect is the default Inspector.
func Inspect(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%+v", v)
}

// Renderer turns events into text. It holds configuration only; output
// depends on nothing but its arguments.
type Renderer struct {
	palette output.Palette
	inspect Inspector
	detail  Detail
}

// NewRenderer returns a Renderer. Nil arguments select the plain palette and
// the default Inspector.
func NewRenderer(palette output.Palette, inspect Inspector, detail Detail) *Renderer {
	if palette == nil {
		palette = output.Plain{}
	}
	if inspect == nil {
		inspect = Inspect
	}
	return &Renderer{palette: palette, inspect: inspect, detail: detail}
}

// Result renders a completed case: its status line, the failure block for
// failures, and the captured logs unless the case was ignored.
func (r *Renderer) Result(res *results.Result) string {
	return r.ResultLine(res) + r.logsSection(res)
}

// ResultLine renders a completed case without its captured logs.
func (r *Renderer) ResultLine(res *results.Result) string {
	switch res.Outcome.Status {
	case results.StatusSuccess:
		return r.palette.Style(output.RoleSuccess, format.SymbolPass+" "+res.Name())
	case results.StatusFailure:
		return r.palette.Style(output.RoleFailure, format.SymbolFail+" "+res.Name()) + "\n" +
			r.palette.Style(output.RoleSecondary, Pad(2, r.Exception(res.Outcome.Exception)))
	case results.StatusIgnored:
		return r.palette.Style(output.RoleIgnored, format.SymbolIgnore+" "+res.Name())
	}
	panic(fmt.Sprintf("unknown outcome status %d for %q", res.Outcome.Status, res.FullTitle()))
}

// Exception renders "[Name]" followed by the detail selected for the
// renderer on the following lines.
func (r *Renderer) Exception(ex *results.Exception) string {
	if ex == nil {
		return "[unknown error]"
	}
	first, second := ex.Stack, ex.Message
	if r.detail == DetailMessage {
		first, second = second, first
	}
	detail := first
	if strings.TrimSpace(detail) == "" {
		detail = second
	}
	if strings.TrimSpace(detail) == "" {
		return "[" + ex.Name + "]"
	}
	return "[" + ex.Name + "]\n" + detail
}

// Logs renders the captured logs block, or "" when there is nothing to show.
// Ignored cases never show logs.
func (r *Renderer) Logs(res *results.Result) string {
	if res.Outcome.Status == results.StatusIgnored || len(res.Logs) == 0 {
		return ""
	}
	entries := make([]string, len(res.Logs))
	for i, v := range res.Logs {
		text := r.inspect(v)
		if first, rest, ok := strings.Cut(newlines.Replace(text), "\n"); ok {
			text = first + "\n" + Pad(2, rest)
		}
		entries[i] = "- " + text
	}
	return Pad(2, "Captured logs:\n"+
		r.palette.Style(output.RoleSecondary, strings.Join(entries, "\n"))+
		"\n---")
}

func (r *Renderer) logsSection(res *results.Result) string {
	block := r.Logs(res)
	if block == "" {
		return ""
	}
	return "\n\n" + block
}
