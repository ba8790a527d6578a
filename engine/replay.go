package engine

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/ansel1/spectang/parser"
)

// timedLine is one input line and the timestamp it should be released at.
// Lines without a timestamp of their own inherit the previous one.
type timedLine struct {
	line      []byte
	timestamp time.Time
}

// ReplayReader re-emits a recorded `go test -json` run, sleeping between
// lines so the original pacing is reproduced. A rate of 1 replays in real
// time, 0.5 at double speed and 0 without any delay.
type ReplayReader struct {
	lines   []timedLine
	rate    float64
	sleep   func(time.Duration)
	next    int
	pending bytes.Buffer
	last    time.Time
}

// ReplayOption configures a ReplayReader.
type ReplayOption func(*ReplayReader)

// WithSleep replaces time.Sleep, mostly for tests.
func WithSleep(fn func(time.Duration)) ReplayOption {
	return func(r *ReplayReader) {
		r.sleep = fn
	}
}

// NewReplayReader reads all of r up front and returns a reader that replays it.
func NewReplayReader(r io.Reader, rate float64, opts ...ReplayOption) (*ReplayReader, error) {
	var lines []timedLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxLineSize)

	for scanner.Scan() {
		line := bytes.Clone(scanner.Bytes())

		var ts time.Time
		if evt, err := parser.ParseEvent(line); err == nil && !evt.Time.IsZero() {
			ts = evt.Time
		} else if len(lines) > 0 {
			ts = lines[len(lines)-1].timestamp
		}
		lines = append(lines, timedLine{line: line, timestamp: ts})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	rr := &ReplayReader{
		lines: lines,
		rate:  rate,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(rr)
	}
	return rr, nil
}

// Read implements io.Reader. Each call returns data from at most one line.
func (r *ReplayReader) Read(p []byte) (int, error) {
	if r.pending.Len() > 0 {
		return r.pending.Read(p)
	}
	if r.next >= len(r.lines) {
		return 0, io.EOF
	}

	current := r.lines[r.next]
	r.next++

	if r.rate > 0 && !r.last.IsZero() && !current.timestamp.IsZero() {
		if gap := current.timestamp.Sub(r.last); gap > 0 {
			r.sleep(time.Duration(float64(gap) * r.rate))
		}
	}
	if !current.timestamp.IsZero() {
		r.last = current.timestamp
	}

	r.pending.Write(current.line)
	r.pending.WriteByte('\n')
	return r.pending.Read(p)
}
