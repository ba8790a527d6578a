package results

import (
	"strings"
	"time"
)

// Kind distinguishes grouping nodes from leaf tests.
type Kind int

const (
	KindCase  Kind = iota // A leaf test with exactly one outcome
	KindSuite             // A grouping node; never has an outcome of its own
)

func (k Kind) String() string {
	if k == KindSuite {
		return "suite"
	}
	return "case"
}

// Node is a suite or case in the test hierarchy.
//
// FullPath lists the ancestor names followed by the node's own name, from
// the root down, and always has at least one element.
type Node struct {
	Name     string
	FullPath []string
	Kind     Kind
}

// Status is the tag of an Outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusIgnored
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusIgnored:
		return "ignored"
	}
	return "unknown"
}

// Exception describes why a case failed.
type Exception struct {
	Name    string
	Message string
	Stack   string
}

// Outcome is the result of running a case. Exception is set only when
// Status is StatusFailure.
type Outcome struct {
	Status    Status
	Exception *Exception
}

// Success returns a passing outcome.
func Success() Outcome { return Outcome{Status: StatusSuccess} }

// Ignored returns a skipped outcome.
func Ignored() Outcome { return Outcome{Status: StatusIgnored} }

// Failure returns a failing outcome carrying ex.
func Failure(ex Exception) Outcome {
	return Outcome{Status: StatusFailure, Exception: &ex}
}

// Result pairs a completed case with its outcome and captured logs.
type Result struct {
	Node    Node
	Outcome Outcome
	Logs    []any
	Elapsed time.Duration
}

// Name returns the case's own name.
func (r *Result) Name() string { return r.Node.Name }

// FullTitle joins the non-empty path segments with spaces.
func (r *Result) FullTitle() string {
	parts := make([]string, 0, len(r.Node.FullPath))
	for _, p := range r.Node.FullPath {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Summary is the outcome of a whole run. Each bucket keeps arrival order.
type Summary struct {
	Passed  []*Result
	Failed  []*Result
	Ignored []*Result
	Elapsed time.Duration
}

// Add appends r to the bucket matching its outcome.
func (s *Summary) Add(r *Result) {
	switch r.Outcome.Status {
	case StatusSuccess:
		s.Passed = append(s.Passed, r)
	case StatusFailure:
		s.Failed = append(s.Failed, r)
	case StatusIgnored:
		s.Ignored = append(s.Ignored, r)
	}
}

// Count returns the number of results across all buckets.
func (s *Summary) Count() int {
	return len(s.Passed) + len(s.Failed) + len(s.Ignored)
}
