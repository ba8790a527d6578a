package results

import (
	"strings"
	"testing"
	"time"

	"github.com/ansel1/spectang/engine"
	"github.com/ansel1/spectang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pkgName = "example.com/math"

// run feeds the given go test events through a collector and returns every
// lifecycle event it emitted.
func run(t *testing.T, events ...parser.TestEvent) []Event {
	t.Helper()

	c := NewCollector()
	sub := c.Subscribe()

	in := make(chan engine.Event, len(events)+1)
	for _, evt := range events {
		in <- engine.Event{Type: engine.EventTest, TestEvent: evt}
	}
	in <- engine.Event{Type: engine.EventComplete}
	close(in)

	go c.ProcessEvents(in)

	var out []Event
	for evt := range sub {
		out = append(out, evt)
	}
	require.NotEmpty(t, out)
	require.Equal(t, EventFinished, out[len(out)-1].Type)
	return out
}

func ofType(events []Event, typ EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestCollector_SingleCase(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := run(t,
		parser.TestEvent{Time: start, Action: "start", Package: pkgName},
		parser.TestEvent{Time: start, Action: "run", Package: pkgName, Test: "TestAdd"},
		parser.TestEvent{Time: start, Action: "output", Package: pkgName, Test: "TestAdd", Output: "=== RUN   TestAdd\n"},
		parser.TestEvent{Time: start, Action: "output", Package: pkgName, Test: "TestAdd", Output: "    add_test.go:9: adding\n"},
		parser.TestEvent{Time: start, Action: "output", Package: pkgName, Test: "TestAdd", Output: "--- PASS: TestAdd (0.01s)\n"},
		parser.TestEvent{Time: start.Add(10 * time.Millisecond), Action: "pass", Package: pkgName, Test: "TestAdd", Elapsed: 0.01},
		parser.TestEvent{Time: start.Add(42 * time.Millisecond), Action: "output", Package: pkgName, Output: "ok  \texample.com/math\t0.042s\n"},
		parser.TestEvent{Time: start.Add(42 * time.Millisecond), Action: "pass", Package: pkgName, Elapsed: 0.042},
	)

	require.Len(t, out, 4)

	assert.Equal(t, EventStarted, out[0].Type)
	assert.Equal(t, Node{Name: pkgName, FullPath: []string{pkgName}, Kind: KindSuite}, out[0].Node)

	assert.Equal(t, EventStarted, out[1].Type)
	assert.Equal(t, KindCase, out[1].Node.Kind)

	require.Equal(t, EventTestResult, out[2].Type)
	r := out[2].Result
	assert.Equal(t, "TestAdd", r.Name())
	assert.Equal(t, []string{pkgName, "TestAdd"}, r.Node.FullPath)
	assert.Equal(t, StatusSuccess, r.Outcome.Status)
	assert.Equal(t, []any{"add_test.go:9: adding"}, r.Logs)
	assert.Equal(t, 10*time.Millisecond, r.Elapsed)

	require.NotNil(t, out[3].Summary)
	assert.Equal(t, 42*time.Millisecond, out[3].Summary.Elapsed)
}

func TestCollector_SubtestsMakeSuites(t *testing.T) {
	out := run(t,
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestMath"},
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestMath/adds"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestMath/adds", Output: "        math_test.go:12: 1 != 2\n"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestMath/adds", Output: "            extra detail\n"},
		parser.TestEvent{Action: "fail", Package: pkgName, Test: "TestMath/adds"},
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestMath/subtracts"},
		parser.TestEvent{Action: "skip", Package: pkgName, Test: "TestMath/subtracts"},
		parser.TestEvent{Action: "fail", Package: pkgName, Test: "TestMath"},
		parser.TestEvent{Action: "fail", Package: pkgName},
	)

	var suites []string
	for _, e := range ofType(out, EventStarted) {
		if e.Node.Kind == KindSuite {
			suites = append(suites, strings.Join(e.Node.FullPath, "/"))
		}
	}
	assert.Equal(t, []string{pkgName, pkgName + "/TestMath"}, suites, "TestMath announced once, as a suite")

	res := ofType(out, EventTestResult)
	require.Len(t, res, 2, "suites never produce results")

	failed := res[0].Result
	assert.Equal(t, []string{pkgName, "TestMath", "adds"}, failed.Node.FullPath)
	require.Equal(t, StatusFailure, failed.Outcome.Status)
	assert.Equal(t, FailureName, failed.Outcome.Exception.Name)
	assert.Equal(t, "math_test.go:12: 1 != 2", failed.Outcome.Exception.Message)
	assert.Equal(t, "math_test.go:12: 1 != 2\n    extra detail", failed.Outcome.Exception.Stack)
	assert.Empty(t, failed.Logs, "failure output lives in the stack")

	assert.Equal(t, StatusIgnored, res[1].Result.Outcome.Status)
}

func TestCollector_SuiteFailingOnItsOwn(t *testing.T) {
	out := run(t,
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestParent"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestParent", Output: "=== RUN   TestParent\n"},
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestParent/sub"},
		parser.TestEvent{Action: "pass", Package: pkgName, Test: "TestParent/sub"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestParent", Output: "    parent_test.go:20: parent assertion broke\n"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestParent", Output: "--- FAIL: TestParent (0.00s)\n"},
		parser.TestEvent{Action: "fail", Package: pkgName, Test: "TestParent", Elapsed: 0.02},
		parser.TestEvent{Action: "fail", Package: pkgName},
	)

	res := ofType(out, EventTestResult)
	require.Len(t, res, 2)
	assert.Equal(t, StatusSuccess, res[0].Result.Outcome.Status)

	parent := res[1].Result
	assert.Equal(t, Node{Name: "TestParent", FullPath: []string{pkgName, "TestParent"}, Kind: KindCase}, parent.Node)
	require.Equal(t, StatusFailure, parent.Outcome.Status)
	assert.Equal(t, FailureName, parent.Outcome.Exception.Name)
	assert.Equal(t, "parent_test.go:20: parent assertion broke", parent.Outcome.Exception.Message)
	assert.Equal(t, 20*time.Millisecond, parent.Elapsed)
}

func TestCollector_SuiteFailingThroughSubtestReportsNothing(t *testing.T) {
	out := run(t,
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestParent"},
		parser.TestEvent{Action: "run", Package: pkgName, Test: "TestParent/sub"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestParent/sub", Output: "        parent_test.go:12: broke\n"},
		parser.TestEvent{Action: "fail", Package: pkgName, Test: "TestParent/sub"},
		parser.TestEvent{Action: "output", Package: pkgName, Test: "TestParent", Output: "--- FAIL: TestParent (0.00s)\n"},
		parser.TestEvent{Action: "fail", Package: pkgName, Test: "TestParent"},
	)

	res := ofType(out, EventTestResult)
	require.Len(t, res, 1)
	assert.Equal(t, []string{pkgName, "TestParent", "sub"}, res[0].Result.Node.FullPath)
}

func TestCollector_RepeatedRunsReannounceSuites(t *testing.T) {
	events := []parser.TestEvent{
		{Action: "run", Package: pkgName, Test: "TestMath"},
		{Action: "run", Package: pkgName, Test: "TestMath/adds"},
		{Action: "pass", Package: pkgName, Test: "TestMath/adds"},
		{Action: "pass", Package: pkgName, Test: "TestMath"},
	}
	out := run(t, append(events, events...)...)

	assert.Len(t, ofType(out, EventTestResult), 2)

	suites := 0
	for _, e := range ofType(out, EventStarted) {
		if e.Node.Kind == KindSuite && e.Node.Name == "TestMath" {
			suites++
		}
	}
	assert.Equal(t, 2, suites)
}

func TestCollector_ForwardsNonTestOutput(t *testing.T) {
	c := NewCollector()
	sub := c.Subscribe()

	in := make(chan engine.Event, 10)
	in <- engine.Event{Type: engine.EventRawLine, RawLine: []byte("# example.com/math")}
	in <- engine.Event{Type: engine.EventTest, TestEvent: parser.TestEvent{Action: "build-output", ImportPath: pkgName, Output: "./math.go:3:1: syntax error\n"}}
	in <- engine.Event{Type: engine.EventTest, TestEvent: parser.TestEvent{Action: "output", Package: pkgName, Output: "FAIL\texample.com/math [build failed]\n"}}
	in <- engine.Event{Type: engine.EventTest, TestEvent: parser.TestEvent{Action: "output", Package: pkgName, Output: "coverage: 50.0% of statements\n"}}
	in <- engine.Event{Type: engine.EventComplete}
	close(in)

	go c.ProcessEvents(in)

	var lines []string
	for evt := range sub {
		if evt.Type == EventOutput {
			lines = append(lines, evt.Output)
		}
	}
	assert.Equal(t, []string{
		"# example.com/math",
		"./math.go:3:1: syntax error",
		"coverage: 50.0% of statements",
	}, lines)
}

func TestCollector_RecordsEngineError(t *testing.T) {
	c := NewCollector()
	sub := c.Subscribe()

	in := make(chan engine.Event, 2)
	in <- engine.Event{Type: engine.EventError, Error: assert.AnError}
	close(in)

	go c.ProcessEvents(in)
	var out []Event
	for evt := range sub {
		out = append(out, evt)
	}

	require.Len(t, out, 1, "a closed channel still finishes the run")
	assert.Equal(t, EventFinished, out[0].Type)
	assert.ErrorIs(t, c.Err(), assert.AnError)
}

func TestCollector_EveryCaseCountedOnce(t *testing.T) {
	var events []parser.TestEvent
	names := []string{"TestA", "TestB", "TestC/x", "TestC/y", "TestD"}
	actions := []string{"pass", "fail", "pass", "skip", "pass"}
	events = append(events, parser.TestEvent{Action: "run", Package: pkgName, Test: "TestC"})
	for i, name := range names {
		events = append(events,
			parser.TestEvent{Action: "run", Package: pkgName, Test: name},
			parser.TestEvent{Action: actions[i], Package: pkgName, Test: name},
		)
	}
	events = append(events, parser.TestEvent{Action: "pass", Package: pkgName, Test: "TestC"})

	var summary Summary
	for _, e := range ofType(run(t, events...), EventTestResult) {
		summary.Add(e.Result)
	}
	assert.Equal(t, len(names), summary.Count())
	assert.Len(t, summary.Passed, 3)
	assert.Len(t, summary.Failed, 1)
	assert.Len(t, summary.Ignored, 1)
}

func TestCollector_FailedPackages(t *testing.T) {
	c := NewCollector()
	sub := c.Subscribe()

	in := make(chan engine.Event, 8)
	for _, evt := range []parser.TestEvent{
		{Action: "start", Package: pkgName},
		{Action: "output", Package: pkgName, Output: "FAIL\texample.com/math [build failed]\n"},
		{Action: "fail", Package: pkgName, FailedBuild: pkgName},
		{Action: "start", Package: "example.com/ok"},
		{Action: "pass", Package: "example.com/ok"},
	} {
		in <- engine.Event{Type: engine.EventTest, TestEvent: evt}
	}
	close(in)

	go c.ProcessEvents(in)
	var out []Event
	for evt := range sub {
		out = append(out, evt)
	}

	assert.Equal(t, []string{pkgName}, c.FailedPackages())
	assert.Empty(t, ofType(out, EventTestResult))
	assert.Empty(t, ofType(out, EventOutput), "the package verdict is not forwarded")
}
