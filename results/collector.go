package results

import (
	"strings"
	"sync"
	"time"

	"github.com/ansel1/spectang/engine"
	"github.com/ansel1/spectang/parser"
)

// FailureName is the exception name given to failed go tests, which carry
// no typed error of their own.
const FailureName = "FAIL"

// Collector translates engine events into lifecycle events.
//
// Packages become root suites. A test becomes a suite as soon as its first
// subtest starts; tests without subtests are cases and produce exactly one
// TestResult when they finish. Suites produce no results unless they fail
// with output of their own.
type Collector struct {
	packages map[string]*packageState
	first    time.Time
	last     time.Time

	mu             sync.Mutex
	err            error
	failedPackages []string

	subscribers []chan Event
	subMu       sync.Mutex
}

type packageState struct {
	tests map[string]*testState // keyed by full test name
}

type testState struct {
	path   []string // package followed by the test's segments
	depth  int      // number of test segments
	suite  bool
	output []string
}

// NewCollector creates a new result collector.
func NewCollector() *Collector {
	return &Collector{
		packages:    make(map[string]*packageState),
		subscribers: make([]chan Event, 0),
	}
}

// Subscribe returns a channel that will receive lifecycle events.
// The caller should read from this channel until it is closed.
func (c *Collector) Subscribe() <-chan Event {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan Event, 100)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// emit sends an event to all subscribers.
func (c *Collector) emit(evt Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, sub := range c.subscribers {
		sub <- evt
	}
}

// closeSubscribers closes all subscriber channels.
func (c *Collector) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, sub := range c.subscribers {
		close(sub)
	}
	c.subscribers = nil
}

// Err returns the first input error reported by the engine, if any.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// FailedPackages returns the packages go test reported as failed, in the
// order they finished. A package can fail without a failing case, for
// example when it does not build or TestMain exits early.
func (c *Collector) FailedPackages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.failedPackages...)
}

// ProcessEvents consumes engine events until EventComplete or until the
// channel closes, then emits Finished and closes all subscriber channels.
// This method should be called as a goroutine.
func (c *Collector) ProcessEvents(events <-chan engine.Event) {
	defer c.closeSubscribers()

	for evt := range events {
		switch evt.Type {
		case engine.EventRawLine:
			c.emit(NewOutputEvent(string(evt.RawLine)))

		case engine.EventTest:
			for _, e := range c.handleTestEvent(evt.TestEvent) {
				c.emit(e)
			}

		case engine.EventError:
			c.mu.Lock()
			if c.err == nil {
				c.err = evt.Error
			}
			c.mu.Unlock()

		case engine.EventComplete:
			c.emit(c.finish())
			return
		}
	}
	c.emit(c.finish())
}

func (c *Collector) finish() Event {
	summary := &Summary{}
	if !c.first.IsZero() && c.last.After(c.first) {
		summary.Elapsed = c.last.Sub(c.first)
	}
	c.packages = make(map[string]*packageState)
	c.first, c.last = time.Time{}, time.Time{}
	return NewFinishedEvent(summary)
}

// handleTestEvent returns the lifecycle events caused by one go test event.
func (c *Collector) handleTestEvent(event parser.TestEvent) []Event {
	if !event.Time.IsZero() {
		if c.first.IsZero() {
			c.first = event.Time
		}
		c.last = event.Time
	}

	if event.Package == "" {
		if event.Action == parser.ActionBuildOutput && event.Output != "" {
			return []Event{NewOutputEvent(strings.TrimRight(event.Output, "\n"))}
		}
		return nil
	}

	var out []Event
	pkg, exists := c.packages[event.Package]
	if !exists {
		pkg = &packageState{tests: make(map[string]*testState)}
		c.packages[event.Package] = pkg
		out = append(out, NewStartedEvent(Node{
			Name:     event.Package,
			FullPath: []string{event.Package},
			Kind:     KindSuite,
		}))
	}

	if event.Test == "" {
		if event.Action == parser.ActionFail {
			c.mu.Lock()
			c.failedPackages = append(c.failedPackages, event.Package)
			c.mu.Unlock()
		}
		return append(out, handlePackageEvent(event)...)
	}
	return append(out, handleTestLevelEvent(pkg, event)...)
}

// handlePackageEvent forwards package-level output that is not go test's own
// PASS/FAIL verdict, such as panics from TestMain or coverage lines.
func handlePackageEvent(event parser.TestEvent) []Event {
	if event.Action != parser.ActionOutput {
		return nil
	}
	line := strings.TrimRight(event.Output, "\n")
	if line == "" || parser.IsPackageVerdict(line) || parser.IsFramingLine(line) {
		return nil
	}
	return []Event{NewOutputEvent(line)}
}

func handleTestLevelEvent(pkg *packageState, event parser.TestEvent) []Event {
	segments := parser.TestPath(event.Test)
	test := pkg.test(event.Package, event.Test, segments)

	switch event.Action {
	case parser.ActionRun:
		var out []Event
		for i := 1; i < len(segments); i++ {
			parent := pkg.test(event.Package, strings.Join(segments[:i], "/"), segments[:i])
			if !parent.suite {
				parent.suite = true
				out = append(out, NewStartedEvent(parent.node(KindSuite)))
			}
		}
		return append(out, NewStartedEvent(test.node(KindCase)))

	case parser.ActionOutput:
		line := strings.TrimRight(event.Output, "\n")
		if parser.IsFramingLine(line) {
			return nil
		}
		test.output = append(test.output, strings.TrimPrefix(line, strings.Repeat("    ", test.depth)))
		return nil

	case parser.ActionPass, parser.ActionFail, parser.ActionSkip:
		delete(pkg.tests, event.Test)
		if test.suite {
			return test.suiteFailure(event)
		}
		result := &Result{
			Node:    test.node(KindCase),
			Elapsed: time.Duration(event.Elapsed * float64(time.Second)),
		}
		switch event.Action {
		case parser.ActionPass:
			result.Outcome = Success()
			result.Logs = test.logs()
		case parser.ActionSkip:
			result.Outcome = Ignored()
			result.Logs = test.logs()
		case parser.ActionFail:
			result.Outcome = Failure(test.exception())
		}
		return []Event{NewTestResultEvent(result)}
	}
	return nil
}

// suiteFailure reports a suite test that failed through its own output
// (t.Error after its subtests, a panic) as a failed case of the same name.
// A suite that failed only because a subtest did has no output of its own
// and reports nothing.
func (t *testState) suiteFailure(event parser.TestEvent) []Event {
	if event.Action != parser.ActionFail || !t.hasOutput() {
		return nil
	}
	return []Event{NewTestResultEvent(&Result{
		Node:    t.node(KindCase),
		Outcome: Failure(t.exception()),
		Elapsed: time.Duration(event.Elapsed * float64(time.Second)),
	})}
}

func (t *testState) hasOutput() bool {
	for _, line := range t.output {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// test returns the state for a test, creating it on first sight.
func (p *packageState) test(pkgName, name string, segments []string) *testState {
	if ts, ok := p.tests[name]; ok {
		return ts
	}
	path := make([]string, 0, len(segments)+1)
	path = append(path, pkgName)
	path = append(path, segments...)
	ts := &testState{path: path, depth: len(segments)}
	p.tests[name] = ts
	return ts
}

func (t *testState) node(kind Kind) Node {
	return Node{
		Name:     t.path[len(t.path)-1],
		FullPath: t.path,
		Kind:     kind,
	}
}

func (t *testState) logs() []any {
	if len(t.output) == 0 {
		return nil
	}
	logs := make([]any, len(t.output))
	for i, line := range t.output {
		logs[i] = line
	}
	return logs
}

// exception folds a failed test's output into an Exception: the first
// non-blank line is the message and the whole output is the stack.
func (t *testState) exception() Exception {
	ex := Exception{Name: FailureName, Stack: strings.Join(t.output, "\n")}
	for _, line := range t.output {
		if strings.TrimSpace(line) != "" {
			ex.Message = strings.TrimSpace(line)
			break
		}
	}
	return ex
}
