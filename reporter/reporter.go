// Package reporter renders test lifecycle events as indented, colored,
// spec-style text followed by a pass/fail/ignored summary.
//
// A Reporter consumes either a stream of results.Event values
// (ProcessEvents, Handle) or a set of discrete Signals (Attach). Both paths
// share the same rendering and counting.
package reporter

import (
	"sync"
	"time"

	"github.com/ansel1/spectang/output"
	"github.com/ansel1/spectang/output/format"
	"github.com/ansel1/spectang/results"
	"github.com/charmbracelet/lipgloss"
)

// Reporter writes rendered events to a Logger.
//
// Events are handled one at a time. A panic while rendering an event is
// recovered and passed to the error handler on a separate goroutine, so the
// caller's delivery loop always completes normally.
type Reporter struct {
	log          output.Logger
	palette      output.Palette
	inspect      Inspector
	detail       Detail
	listFailures bool
	now          func() time.Time
	onError      func(error)

	renderer *Renderer

	mu   sync.Mutex
	agg  *Aggregator // nil between runs
	last *results.Summary

	pending sync.WaitGroup // error handlers still running
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithLogger sets the output sink. The default writes to stdout.
func WithLogger(log output.Logger) Option {
	return func(r *Reporter) {
		r.log = log
	}
}

// WithPalette sets how roles are styled. The default uses lipgloss with the
// default renderer.
func WithPalette(p output.Palette) Option {
	return func(r *Reporter) {
		r.palette = p
	}
}

// WithInspector sets how captured log values are turned into text.
func WithInspector(fn Inspector) Option {
	return func(r *Reporter) {
		r.inspect = fn
	}
}

// WithFailureDetail selects stack traces (default) or messages for failures.
func WithFailureDetail(d Detail) Option {
	return func(r *Reporter) {
		r.detail = d
	}
}

// WithFailureListing appends a numbered list of failures to the summary.
func WithFailureListing(enabled bool) Option {
	return func(r *Reporter) {
		r.listFailures = enabled
	}
}

// WithClock replaces time.Now for elapsed time measurement.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithErrorHandler receives errors raised while rendering. It is called on
// its own goroutine. The default logs through log/slog.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Reporter) {
		r.onError = fn
	}
}

// New creates a Reporter.
func New(opts ...Option) *Reporter {
	r := &Reporter{
		now:     time.Now,
		onError: logError,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = output.Stdout()
	}
	if r.onError == nil {
		r.onError = logError
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.palette == nil {
		r.palette = format.NewPalette(lipgloss.DefaultRenderer())
	}
	r.renderer = NewRenderer(r.palette, r.inspect, r.detail)
	return r
}

// Renderer returns the renderer the reporter uses.
func (r *Reporter) Renderer() *Renderer {
	return r.renderer
}

// ProcessEvents attaches to a stream and handles every event until the
// channel is closed.
func (r *Reporter) ProcessEvents(events <-chan results.Event) {
	r.attach()
	for evt := range events {
		r.Handle(evt)
	}
}

// Handle processes a single event. The first event after a finished run
// starts a new one.
func (r *Reporter) Handle(evt results.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch evt.Type {
	case results.EventTestResult:
		r.count(evt.Result)
		r.emitLine(evt)
	case results.EventFinished:
		r.finish(evt)
	default:
		r.emitLine(evt)
	}
}

// Summary returns the summary of the most recently finished run, or nil.
func (r *Reporter) Summary() *results.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Wait blocks until every error handler started so far has returned.
func (r *Reporter) Wait() {
	r.pending.Wait()
}

// attach starts a run's clock unless one is already running.
func (r *Reporter) attach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregator()
}

func (r *Reporter) aggregator() *Aggregator {
	if r.agg == nil {
		r.agg = NewAggregator(r.now)
	}
	return r.agg
}

func (r *Reporter) count(res *results.Result) {
	r.aggregator().Add(res)
}

func (r *Reporter) emitLine(evt results.Event) {
	r.guard(evt, func() {
		if line, ok := r.renderer.Classify(evt); ok {
			r.log(line.String())
		}
	})
}

func (r *Reporter) finish(evt results.Event) {
	summary := r.aggregator().Finish(evt.Summary)
	r.agg = nil
	r.last = summary

	r.guard(evt, func() {
		for _, line := range r.renderer.Summary(summary, r.listFailures) {
			r.log(line)
		}
	})
}

// guard runs fn, turning a panic into a RenderError delivered asynchronously.
func (r *Reporter) guard(evt results.Event, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			err := &RenderError{Event: evt, Cause: recovered(v)}
			r.pending.Add(1)
			go func() {
				defer r.pending.Done()
				r.onError(err)
			}()
		}
	}()
	fn()
}
