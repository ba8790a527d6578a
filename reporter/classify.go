package reporter

import (
	"github.com/ansel1/spectang/results"
)

// Line is a renderable piece of text and the column it is indented to.
type Line struct {
	Indent int
	Text   string
}

// String returns the text with every line indented.
func (l Line) String() string {
	return Pad(l.Indent, l.Text)
}

// Classify maps an event to the line it should produce, if any. Case starts,
// run completion and unrecognized events produce nothing.
func (r *Renderer) Classify(evt results.Event) (Line, bool) {
	switch evt.Type {
	case results.EventStarted:
		if evt.Node.Kind != results.KindSuite {
			return Line{}, false
		}
		return Line{Indent: Level(evt.Node), Text: evt.Node.Name}, true

	case results.EventTestResult:
		if evt.Result == nil {
			return Line{}, false
		}
		return Line{Indent: Level(evt.Result.Node), Text: r.Result(evt.Result)}, true

	case results.EventOutput:
		return Line{Text: evt.Output}, true

	case results.EventFinished:
		return Line{}, false
	}
	return Line{}, false
}
