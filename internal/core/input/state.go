package input

import (
	"sync"
	"sync/atomic"
)

// State accumulates movement intent from key edge events.
//
// Writers may run on any goroutine (input callbacks); the simulation tick only
// reads through Intent and Pressed, which load atomics and never block.
type State struct {
	mode   Mode
	keyMap KeyMap

	mu   sync.Mutex
	held map[Key]struct{}

	counts [actionCount]atomic.Int32
	// direct marks actions held through OnKeyAction; each adds at most one
	// reference however often it is repeated.
	direct [actionCount]atomic.Bool
}

type Option func(*State)

func WithMode(m Mode) Option {
	return func(s *State) { s.mode = m }
}

func WithKeyMap(km KeyMap) Option {
	return func(s *State) { s.keyMap = km }
}

func NewState(opts ...Option) *State {
	s := &State{
		mode:   ModeRefCount,
		keyMap: DefaultKeyMap(),
		held:   make(map[Key]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *State) Mode() Mode { return s.mode }

func (s *State) KeyMap() KeyMap { return s.keyMap }

// OnKey handles a physical key edge. Unmapped keys are ignored. In ModeRefCount a
// repeated key-down for a key that is already held does not count twice.
// It reports whether the key was mapped.
func (s *State) OnKey(k Key, pressed bool) bool {
	action := s.keyMap.Lookup(k)
	if !action.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, isHeld := s.held[k]
	if pressed {
		s.held[k] = struct{}{}
	} else {
		delete(s.held, k)
	}
	// auto-repeat downs and stray ups must not move the reference count
	if s.mode == ModeRefCount && isHeld == pressed {
		return true
	}
	s.apply(action, pressed)
	return true
}

// OnKeyAction sets or clears a logical action directly. Repeated presses
// count once, so a single release clears them.
func (s *State) OnKeyAction(a Action, pressed bool) {
	if !a.Valid() {
		return
	}
	if s.mode == ModeRefCount && s.direct[a].Swap(pressed) == pressed {
		return
	}
	s.apply(a, pressed)
}

func (s *State) apply(a Action, pressed bool) {
	c := &s.counts[a]
	if s.mode == ModeLatch {
		if pressed {
			c.Store(1)
		} else {
			c.Store(0)
		}
		return
	}

	if pressed {
		c.Add(1)
		return
	}
	for {
		cur := c.Load()
		if cur <= 0 || c.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Pressed reports whether action a is currently active.
func (s *State) Pressed(a Action) bool {
	if !a.Valid() {
		return false
	}
	return s.counts[a].Load() > 0
}

// Intent returns the pre-normalization intent vector:
// dz = forward - backward, dx = right - left.
func (s *State) Intent() (dx, dz int) {
	dz = b2i(s.Pressed(ActionForward)) - b2i(s.Pressed(ActionBackward))
	dx = b2i(s.Pressed(ActionRight)) - b2i(s.Pressed(ActionLeft))
	return dx, dz
}

// Reset releases every key and action.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.held)
	for i := range s.counts {
		s.counts[i].Store(0)
		s.direct[i].Store(false)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
