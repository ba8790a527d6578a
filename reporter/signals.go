package reporter

import (
	"sync"

	"github.com/ansel1/spectang/results"
)

// Signals is the discrete-channel form of the lifecycle: six notification
// points, each accepting any number of listeners. An execution engine that
// prefers callbacks over a stream emits through Signals, and Reporter.Attach
// subscribes to all of them.
//
// Result fires for every completed case in addition to exactly one of
// Success, Failure or Ignored, and carries the case's captured logs.
type Signals struct {
	mu           sync.Mutex
	suiteStarted []func(results.Node)
	success      []func(*results.Result)
	failure      []func(*results.Result)
	ignored      []func(*results.Result)
	result       []func(*results.Result)
	done         []func(*results.Summary)
}

// NewSignals returns a Signals with no listeners.
func NewSignals() *Signals {
	return &Signals{}
}

// OnSuiteStarted and the other On methods register a listener for the
// matching signal. Listeners run in registration order on the emitting
// goroutine.
func (s *Signals) OnSuiteStarted(fn func(results.Node)) { s.add(func() { s.suiteStarted = append(s.suiteStarted, fn) }) }
func (s *Signals) OnSuccess(fn func(*results.Result))    { s.add(func() { s.success = append(s.success, fn) }) }
func (s *Signals) OnFailure(fn func(*results.Result))    { s.add(func() { s.failure = append(s.failure, fn) }) }
func (s *Signals) OnIgnored(fn func(*results.Result))    { s.add(func() { s.ignored = append(s.ignored, fn) }) }
func (s *Signals) OnResult(fn func(*results.Result))     { s.add(func() { s.result = append(s.result, fn) }) }
func (s *Signals) OnDone(fn func(*results.Summary))      { s.add(func() { s.done = append(s.done, fn) }) }

func (s *Signals) add(register func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	register()
}

// SuiteStarted notifies listeners that a suite began.
func (s *Signals) SuiteStarted(node results.Node) {
	for _, fn := range snapshot(&s.mu, &s.suiteStarted) {
		fn(node)
	}
}

// Success notifies listeners that a case passed.
func (s *Signals) Success(r *results.Result) { fire(snapshot(&s.mu, &s.success), r) }

// Failure notifies listeners that a case failed.
func (s *Signals) Failure(r *results.Result) { fire(snapshot(&s.mu, &s.failure), r) }

// Ignored notifies listeners that a case was skipped.
func (s *Signals) Ignored(r *results.Result) { fire(snapshot(&s.mu, &s.ignored), r) }

// Result notifies listeners that a case completed, whatever its outcome.
func (s *Signals) Result(r *results.Result) { fire(snapshot(&s.mu, &s.result), r) }

// Done notifies listeners that the run completed. The reporter counts cases
// itself, so only summary.Elapsed is read from the payload.
func (s *Signals) Done(summary *results.Summary) {
	for _, fn := range snapshot(&s.mu, &s.done) {
		fn(summary)
	}
}

// Complete emits the signals for one finished case: the outcome-specific
// signal followed by Result.
func (s *Signals) Complete(r *results.Result) {
	switch r.Outcome.Status {
	case results.StatusSuccess:
		s.Success(r)
	case results.StatusFailure:
		s.Failure(r)
	case results.StatusIgnored:
		s.Ignored(r)
	}
	s.Result(r)
}

func snapshot[T any](mu *sync.Mutex, listeners *[]T) []T {
	mu.Lock()
	defer mu.Unlock()
	return append([]T(nil), *listeners...)
}

func fire(listeners []func(*results.Result), r *results.Result) {
	for _, fn := range listeners {
		fn(r)
	}
}

// Attach subscribes the reporter to every signal and starts the run clock.
//
// Outcome signals print the case's status line and count it; Result prints
// only the captured logs block; Done prints the summary.
func (r *Reporter) Attach(s *Signals) {
	r.attach()

	s.OnSuiteStarted(func(node results.Node) {
		node.Kind = results.KindSuite
		r.Handle(results.NewStartedEvent(node))
	})

	outcome := func(res *results.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.count(res)
		evt := results.NewTestResultEvent(res)
		r.guard(evt, func() {
			r.log(Line{Indent: Level(res.Node), Text: r.renderer.ResultLine(res)}.String())
		})
	}
	s.OnSuccess(outcome)
	s.OnFailure(outcome)
	s.OnIgnored(outcome)

	s.OnResult(func(res *results.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()

		evt := results.NewTestResultEvent(res)
		r.guard(evt, func() {
			if block := r.renderer.Logs(res); block != "" {
				r.log(Line{Indent: Level(res.Node), Text: "\n" + block}.String())
			}
		})
	})

	s.OnDone(func(summary *results.Summary) {
		r.Handle(results.NewFinishedEvent(summary))
	})
}
