package results

// EventType identifies the type of lifecycle event.
type EventType string

const (
	EventStarted    EventType = "started"     // A suite or case has started
	EventTestResult EventType = "test_result" // A case has completed
	EventFinished   EventType = "finished"    // The run has completed
	EventOutput     EventType = "output"      // Output not attributable to a case (build errors, panics)
)

// Event is a lifecycle notification. Only the fields documented for its
// Type are populated.
type Event struct {
	Type    EventType
	Node    Node     // For EventStarted
	Result  *Result  // For EventTestResult
	Summary *Summary // For EventFinished; may be nil
	Output  string   // For EventOutput
}

// NewStartedEvent creates a new Started event.
func NewStartedEvent(node Node) Event {
	return Event{
		Type: EventStarted,
		Node: node,
	}
}

// NewTestResultEvent creates a new TestResult event.
func NewTestResultEvent(r *Result) Event {
	return Event{
		Type:   EventTestResult,
		Result: r,
	}
}

// NewFinishedEvent creates a new Finished event. summary may be nil when the
// source has nothing to add to what the consumer counted itself.
func NewFinishedEvent(summary *Summary) Event {
	return Event{
		Type:    EventFinished,
		Summary: summary,
	}
}

// NewOutputEvent creates a new Output event.
func NewOutputEvent(line string) Event {
	return Event{
		Type:   EventOutput,
		Output: line,
	}
}
