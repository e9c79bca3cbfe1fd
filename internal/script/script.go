package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/zeusync/fpnav/internal/core/events"
	"github.com/zeusync/fpnav/internal/core/events/bus"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"gopkg.in/yaml.v3"
)

const source = "script"

var (
	ErrInvalidStep = errors.New("invalid script step")
	ErrReadScript  = errors.New("failed to read script")
)

// Script is a timeline of input events replayed against a session.
type Script struct {
	// Duration keeps the run going after the last step. Zero ends right after it.
	Duration time.Duration `yaml:"duration"`
	Steps    []Step        `yaml:"steps"`
}

// Step is one timed input. Exactly one of Key, Action, Lock or Look is set.
type Step struct {
	At      time.Duration `yaml:"at"`
	Key     string        `yaml:"key"`
	Action  string        `yaml:"action"`
	Pressed bool          `yaml:"pressed"`
	Lock    *bool         `yaml:"lock"`
	Look    *[2]float64   `yaml:"look"`
}

func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadScript, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a script. Steps are sorted by time, keeping file
// order for steps with the same time.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrReadScript, err)
	}
	for i, st := range s.Steps {
		if _, err := st.Event(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if st.At < 0 {
			return nil, fmt.Errorf("step %d: %w: negative time", i, ErrInvalidStep)
		}
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
	return &s, nil
}

// Event converts the step into the session event it stands for.
func (s Step) Event() (bus.Event, error) {
	set := 0
	for _, ok := range []bool{s.Key != "", s.Action != "", s.Lock != nil, s.Look != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: want exactly one of key, action, lock, look", ErrInvalidStep)
	}

	switch {
	case s.Key != "":
		return events.NewKey(source, input.Key(s.Key), s.Pressed), nil
	case s.Action != "":
		a, err := input.ParseAction(s.Action)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		return events.NewAction(source, a, s.Pressed), nil
	case s.Lock != nil:
		return events.NewLock(source, *s.Lock), nil
	default:
		return events.NewLook(source, s.Look[0], s.Look[1]), nil
	}
}

// End is the offset at which a replay finishes.
func (s *Script) End() time.Duration {
	end := s.Duration
	if n := len(s.Steps); n > 0 && s.Steps[n-1].At > end {
		end = s.Steps[n-1].At
	}
	return end
}

// Submitter accepts events for the next tick.
type Submitter func(bus.Event) error

// Player replays a script in real time.
type Player struct {
	script *Script
	logger log.Log
	after  func(time.Duration) <-chan time.Time
}

func NewPlayer(s *Script, logger log.Log) *Player {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Player{script: s, logger: logger.With(log.String("component", "script")), after: time.After}
}

// Play submits every step at its offset from the call, then waits out the
// script duration. It returns early with ctx's error when ctx is cancelled.
// A rejected event is logged and the replay continues.
func (p *Player) Play(ctx context.Context, submit Submitter) error {
	var elapsed time.Duration
	wait := func(until time.Duration) error {
		if until <= elapsed {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.after(until - elapsed):
			elapsed = until
			return nil
		}
	}

	for i, st := range p.script.Steps {
		if err := wait(st.At); err != nil {
			return err
		}
		ev, err := st.Event()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := submit(ev); err != nil {
			p.logger.Warn("step rejected", log.Int("step", i), log.String("type", ev.Type()), log.Error(err))
			continue
		}
		p.logger.Debug("step submitted", log.Int("step", i), log.String("type", ev.Type()), log.Duration("at", st.At))
	}
	if err := wait(p.script.End()); err != nil {
		return err
	}
	p.logger.Info("script finished", log.Int("steps", len(p.script.Steps)), log.Duration("elapsed", elapsed))
	return nil
}
