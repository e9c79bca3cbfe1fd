package script

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/fpnav/internal/core/events"
	"github.com/zeusync/fpnav/internal/core/events/bus"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/observability/log"
)

const walk = `
duration: 2s
steps:
  - at: 1s
    key: KeyW
    pressed: false
  - at: 0s
    lock: true
  - at: 100ms
    key: KeyW
    pressed: true
  - at: 100ms
    look: [10, -4]
  - at: 1500ms
    action: right
    pressed: true
`

// instant fires every wait immediately and records the requested delays.
func instant(waits *[]time.Duration) func(time.Duration) <-chan time.Time {
	return func(d time.Duration) <-chan time.Time {
		*waits = append(*waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
}

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(walk))
	require.NoError(t, err)

	require.Len(t, s.Steps, 5)
	assert.Equal(t, 2*time.Second, s.Duration)
	assert.Equal(t, 2*time.Second, s.End())

	ats := make([]time.Duration, 0, len(s.Steps))
	for _, st := range s.Steps {
		ats = append(ats, st.At)
	}
	assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 100 * time.Millisecond, time.Second, 1500 * time.Millisecond}, ats)
	assert.Equal(t, "KeyW", s.Steps[1].Key, "equal times keep file order")
	assert.NotNil(t, s.Steps[2].Look)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty step":     "steps:\n  - at: 1s\n",
		"two inputs":     "steps:\n  - at: 1s\n    key: KeyW\n    lock: true\n",
		"unknown action": "steps:\n  - action: jump\n",
		"negative time":  "steps:\n  - at: -1s\n    lock: true\n",
		"unknown field":  "steps:\n  - lock: true\n    speed: 3\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestStepEvent(t *testing.T) {
	locked := true
	ev, err := Step{Lock: &locked}.Event()
	require.NoError(t, err)
	assert.Equal(t, events.TypeLock, ev.Type())
	assert.Equal(t, events.Lock{Locked: true}, ev.Data())

	ev, err = Step{Action: "backward", Pressed: true}.Event()
	require.NoError(t, err)
	assert.Equal(t, events.Action{Action: input.ActionBackward, Pressed: true}, ev.Data())

	_, err = Step{}.Event()
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestPlay(t *testing.T) {
	s, err := Parse(strings.NewReader(walk))
	require.NoError(t, err)

	var waits []time.Duration
	p := NewPlayer(s, log.NewNop())
	p.after = instant(&waits)

	var got []bus.Event
	err = p.Play(context.Background(), func(e bus.Event) error {
		got = append(got, e)
		if e.Type() == events.TypeLook {
			return errors.New("queue full")
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 5, "rejected steps do not stop the replay")
	assert.Equal(t, events.TypeLock, got[0].Type())
	assert.Equal(t, events.TypeAction, got[4].Type())
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		900 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}, waits)
}

func TestPlayCancelled(t *testing.T) {
	s, err := Parse(strings.NewReader(walk))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPlayer(s, nil)
	p.after = func(time.Duration) <-chan time.Time { return nil }

	err = p.Play(ctx, func(bus.Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
