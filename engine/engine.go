package engine

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ansel1/spectang/parser"
)

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventRawLine  EventType = "raw"      // Non-JSON line from input
	EventTest     EventType = "test"     // Parsed test event from go test -json
	EventError    EventType = "error"    // Error occurred during processing
	EventComplete EventType = "complete" // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type      EventType
	RawLine   []byte           // Populated for EventRawLine
	TestEvent parser.TestEvent // Populated for EventTest
	Error     error            // Populated for EventError
}

// DefaultMaxLineSize bounds a single input line. go test emits a whole
// t.Log payload as one JSON line, so the bufio default of 64KiB is too small.
const DefaultMaxLineSize = 4 * 1024 * 1024

// Engine turns raw `go test -json` input into a stream of events.
// It holds no test state.
type Engine struct {
	rawWriter   io.Writer
	jsonWriter  io.Writer
	maxLineSize int
	bufferSize  int
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput copies every input line to w.
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithJSONOutput copies only the lines that parsed as test events to w.
func WithJSONOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.jsonWriter = w
	}
}

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLineSize = n
		}
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxLineSize: DefaultMaxLineSize,
		bufferSize:  100,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads input line by line and emits one event per line, followed by
// at most one EventError and exactly one EventComplete. The channel is closed
// after EventComplete.
func (e *Engine) Stream(input io.Reader) <-chan Event {
	events := make(chan Event, e.bufferSize)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, min(64*1024, e.maxLineSize)), e.maxLineSize)

		var copyErr error
		for scanner.Scan() {
			line := scanner.Bytes()

			if err := copyLine(e.rawWriter, line); err != nil && copyErr == nil {
				copyErr = fmt.Errorf("writing raw output: %w", err)
			}

			testEvent, err := parser.ParseEvent(line)
			if err != nil {
				// scanner reuses its buffer
				lineCopy := make([]byte, len(line))
				copy(lineCopy, line)
				events <- Event{
					Type:    EventRawLine,
					RawLine: lineCopy,
				}
				continue
			}

			if err := copyLine(e.jsonWriter, line); err != nil && copyErr == nil {
				copyErr = fmt.Errorf("writing json output: %w", err)
			}

			events <- Event{
				Type:      EventTest,
				TestEvent: testEvent,
			}
		}

		if err := scanner.Err(); err != nil {
			events <- Event{
				Type:  EventError,
				Error: fmt.Errorf("reading input: %w", err),
			}
		} else if copyErr != nil {
			events <- Event{
				Type:  EventError,
				Error: copyErr,
			}
		}

		events <- Event{
			Type: EventComplete,
		}
	}()

	return events
}

func copyLine(w io.Writer, line []byte) error {
	if w == nil {
		return nil
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n"))
	return err
}
