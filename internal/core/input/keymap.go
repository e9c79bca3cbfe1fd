package input

import (
	"errors"
	"fmt"
	"sort"
)

// Key identifies a physical key. Values follow KeyboardEvent.code naming
// ("KeyW", "ArrowUp"), but any non-empty string works.
type Key string

var (
	ErrEmptyKey     = errors.New("empty key identifier")
	ErrDuplicateKey = errors.New("key bound to more than one action")
)

// KeyMap translates physical keys into logical actions.
type KeyMap struct {
	bindings map[Key]Action
}

// DefaultKeyMap binds both the arrow keys and WASD.
func DefaultKeyMap() KeyMap {
	km, _ := NewKeyMap(map[Action][]Key{
		ActionForward:  {"ArrowUp", "KeyW"},
		ActionBackward: {"ArrowDown", "KeyS"},
		ActionLeft:     {"ArrowLeft", "KeyA"},
		ActionRight:    {"ArrowRight", "KeyD"},
	})
	return km
}

// NewKeyMap builds a map from per-action key lists.
func NewKeyMap(bindings map[Action][]Key) (KeyMap, error) {
	km := KeyMap{bindings: make(map[Key]Action)}
	for action, keys := range bindings {
		if !action.Valid() {
			return KeyMap{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
		for _, k := range keys {
			if k == "" {
				return KeyMap{}, fmt.Errorf("%w for %s", ErrEmptyKey, action)
			}
			if prev, ok := km.bindings[k]; ok && prev != action {
				return KeyMap{}, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateKey, k, prev, action)
			}
			km.bindings[k] = action
		}
	}
	return km, nil
}

// ParseKeyMap builds a map from config style bindings, e.g. {"forward": ["KeyW"]}.
func ParseKeyMap(raw map[string][]string) (KeyMap, error) {
	bindings := make(map[Action][]Key, len(raw))
	for name, keys := range raw {
		action, err := ParseAction(name)
		if err != nil {
			return KeyMap{}, err
		}
		for _, k := range keys {
			bindings[action] = append(bindings[action], Key(k))
		}
	}
	return NewKeyMap(bindings)
}

// Lookup returns the action bound to k, or ActionNone.
func (m KeyMap) Lookup(k Key) Action {
	return m.bindings[k]
}

// Keys returns the keys bound to a, sorted.
func (m KeyMap) Keys(a Action) []Key {
	var keys []Key
	for k, bound := range m.bindings {
		if bound == a {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (m KeyMap) Len() int { return len(m.bindings) }
