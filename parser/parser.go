package parser

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Actions reported by `go test -json` (see `go doc test2json`).
const (
	ActionStart       = "start"
	ActionRun         = "run"
	ActionPause       = "pause"
	ActionCont        = "cont"
	ActionOutput      = "output"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionBench       = "bench"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// TestEvent represents a single event from `go test -json` output
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	Test        string    `json:"Test,omitempty"`
	Output      string    `json:"Output,omitempty"`
	Elapsed     float64   `json:"Elapsed,omitempty"`
	Source      string    `json:"Source,omitempty"`
	ImportPath  string    `json:"ImportPath,omitempty"`
	FailedBuild string    `json:"FailedBuild,omitempty"` // package whose build failure failed this one
}

// ParseEvent parses a single line of JSON from `go test -json` output.
// Lines that decode but carry no Action are rejected so that arbitrary JSON
// printed by a test binary is treated as raw output.
func ParseEvent(line []byte) (TestEvent, error) {
	var event TestEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	if event.Action == "" {
		return event, ErrNoAction
	}
	return event, nil
}

// ErrNoAction is returned by ParseEvent for JSON lines without an Action.
var ErrNoAction = errors.New("json line has no Action field")

// IsTerminal reports whether the action ends a test or package.
func (e TestEvent) IsTerminal() bool {
	switch e.Action {
	case ActionPass, ActionFail, ActionSkip:
		return true
	}
	return false
}

// TestPath splits a test name into its subtest segments:
// "TestFoo/bar/baz" -> ["TestFoo", "bar", "baz"].
func TestPath(test string) []string {
	if test == "" {
		return nil
	}
	return strings.Split(test, "/")
}

// framingPrefixes are the lines go test writes around a test's own output.
var framingPrefixes = []string{
	"=== RUN", "=== PAUSE", "=== CONT", "=== NAME",
	"--- PASS", "--- FAIL", "--- SKIP", "--- BENCH",
}

// IsFramingLine reports whether an output line is go test's own bookkeeping
// rather than something the test printed.
func IsFramingLine(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	for _, p := range framingPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// IsPackageVerdict reports whether a package-level output line is the final
// PASS/FAIL/ok verdict that go test prints per package.
func IsPackageVerdict(line string) bool {
	switch {
	case line == "PASS", line == "FAIL":
		return true
	case strings.HasPrefix(line, "ok  \t"), strings.HasPrefix(line, "FAIL\t"):
		return true
	case strings.HasPrefix(line, "?   \t"):
		return true
	}
	return false
}
