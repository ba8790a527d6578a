package reporter

import (
	"fmt"
	"time"

	"github.com/ansel1/spectang/output"
	"github.com/ansel1/spectang/results"
)

// Aggregator accumulates the results of one run.
//
// It starts its clock when created. Finish closes the run and returns the
// summary; the aggregator must not be used afterwards.
type Aggregator struct {
	summary results.Summary
	now     func() time.Time
	start   time.Time
}

// NewAggregator starts a run at now().
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now, start: now()}
}

// Add files a result under its outcome.
func (a *Aggregator) Add(r *results.Result) {
	if r == nil {
		return
	}
	a.summary.Add(r)
}

// Finish returns the run's summary. When the source reported an elapsed
// time it is used as is; otherwise elapsed is measured from creation.
func (a *Aggregator) Finish(reported *results.Summary) *results.Summary {
	s := a.summary
	if reported != nil && reported.Elapsed > 0 {
		s.Elapsed = reported.Elapsed
	} else {
		s.Elapsed = a.now().Sub(a.start)
	}
	return &s
}

// Summary renders the end-of-run block, one element per output line.
// The total counts passed and failed cases; ignored ones are listed apart.
func (r *Renderer) Summary(s *results.Summary, listFailures bool) []string {
	passed, failed, ignored := len(s.Passed), len(s.Failed), len(s.Ignored)
	total := passed + failed

	color := output.RoleSuccess
	if failed > 0 {
		color = output.RoleFailure
	}

	ignoredNote := ""
	if ignored > 0 {
		ignoredNote = fmt.Sprintf("%d ignored / ", ignored)
	}

	lines := []string{
		"",
		r.palette.Style(color, fmt.Sprintf("Ran %d %s", total, Plural(total, "test"))) + " " +
			r.palette.Style(output.RoleSecondary, fmt.Sprintf("(%s%dms)", ignoredNote, s.Elapsed.Milliseconds())),
	}
	if passed > 0 {
		lines = append(lines, r.palette.Style(output.RoleSuccess, fmt.Sprintf("%d %s passed.", passed, Plural(passed, "test"))))
	}
	if failed > 0 {
		lines = append(lines, r.palette.Style(output.RoleFailure, fmt.Sprintf("%d %s failed.", failed, Plural(failed, "test"))))
	}

	if listFailures {
		lines = append(lines, r.Failures(s.Failed)...)
	}
	return lines
}

// Failures renders the numbered failure listing.
func (r *Renderer) Failures(failed []*results.Result) []string {
	var lines []string
	for i, res := range failed {
		lines = append(lines,
			"",
			r.palette.Style(output.RoleFailure, fmt.Sprintf("%d) %s", i+1, res.FullTitle())),
			r.palette.Style(output.RoleSecondary, Pad(2, r.Exception(res.Outcome.Exception))),
			"---",
		)
	}
	return lines
}
