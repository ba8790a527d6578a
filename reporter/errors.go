package reporter

import (
	"fmt"
	"log/slog"

	"github.com/ansel1/spectang/results"
)

// RenderError reports that an event could not be rendered. The event's text
// was dropped; the run's counts are unaffected.
type RenderError struct {
	Event results.Event
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s event: %v", e.Event.Type, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// recovered converts a recovered panic value into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}

// logError is the default error handler.
func logError(err error) {
	slog.Error("reporter: dropped output", "err", err)
}
