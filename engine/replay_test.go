package engine

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayInput = `{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"pkg","Test":"TestA"}
raw line between events
{"Time":"2024-01-01T00:00:02Z","Action":"pass","Package":"pkg","Test":"TestA"}
{"Time":"2024-01-01T00:00:03Z","Action":"pass","Package":"pkg"}`

func TestReplayReader_ReproducesContent(t *testing.T) {
	rr, err := NewReplayReader(strings.NewReader(replayInput), 0)
	require.NoError(t, err)

	out, err := io.ReadAll(rr)
	require.NoError(t, err)
	assert.Equal(t, replayInput+"\n", string(out))
}

func TestReplayReader_ScalesDelays(t *testing.T) {
	var slept []time.Duration
	rr, err := NewReplayReader(strings.NewReader(replayInput), 0.5, WithSleep(func(d time.Duration) {
		slept = append(slept, d)
	}))
	require.NoError(t, err)

	_, err = io.ReadAll(rr)
	require.NoError(t, err)

	// the raw line inherits the first timestamp, so it adds no delay
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, slept)
}

func TestReplayReader_RateZeroNeverSleeps(t *testing.T) {
	rr, err := NewReplayReader(strings.NewReader(replayInput), 0, WithSleep(func(time.Duration) {
		t.Fatal("unexpected sleep")
	}))
	require.NoError(t, err)

	_, err = io.ReadAll(rr)
	require.NoError(t, err)
}

func TestReplayReader_SmallBuffer(t *testing.T) {
	rr, err := NewReplayReader(strings.NewReader("abcdef\nghi"), 0)
	require.NoError(t, err)

	var got strings.Builder
	buf := make([]byte, 2)
	for {
		n, err := rr.Read(buf)
		got.Write(buf[:n])
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "abcdef\nghi\n", got.String())
}

func TestReplayReader_FeedsEngine(t *testing.T) {
	rr, err := NewReplayReader(strings.NewReader(replayInput), 0)
	require.NoError(t, err)

	collected := collect(NewEngine().Stream(rr))
	require.Len(t, collected, 5)
	assert.Equal(t, EventRawLine, collected[1].Type)
	assert.Equal(t, EventComplete, collected[4].Type)
}
