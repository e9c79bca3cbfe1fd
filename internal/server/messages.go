package server

import (
	"fmt"
	"maps"
	"slices"

	"github.com/zeusync/fpnav/internal/core/events"
	"github.com/zeusync/fpnav/internal/core/events/bus"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/session"
)

// Client message types.
const (
	MessageKey    = "key"
	MessageAction = "action"
	MessageLock   = "lock"
	MessageLook   = "look"
)

// Server message types.
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// ClientMessage is one JSON frame sent by a client. Which fields matter depends
// on Type.
type ClientMessage struct {
	Type    string  `json:"type"`
	Key     string  `json:"key,omitempty"`
	Action  string  `json:"action,omitempty"`
	Pressed bool    `json:"pressed,omitempty"`
	Locked  bool    `json:"locked,omitempty"`
	DX      float64 `json:"dx,omitempty"`
	DY      float64 `json:"dy,omitempty"`
}

// Event converts the message into a session event attributed to src.
func (m ClientMessage) Event(src string) (bus.Event, error) {
	switch m.Type {
	case MessageKey:
		if m.Key == "" {
			return nil, fmt.Errorf("%w: key message without key", ErrInvalidMessage)
		}
		return events.NewKey(src, input.Key(m.Key), m.Pressed), nil
	case MessageAction:
		a, err := input.ParseAction(m.Action)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		return events.NewAction(src, a, m.Pressed), nil
	case MessageLock:
		return events.NewLock(src, m.Locked), nil
	case MessageLook:
		return events.NewLook(src, m.DX, m.DY), nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
}

// ServerMessage is one JSON frame sent to clients.
type ServerMessage struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// heldInput remembers the keys and actions one client is holding. Only that
// client's read goroutine touches it.
type heldInput struct {
	keys    map[string]struct{}
	actions map[input.Action]struct{}
}

func newHeldInput() *heldInput {
	return &heldInput{
		keys:    make(map[string]struct{}),
		actions: make(map[input.Action]struct{}),
	}
}

// track records a message that was accepted by the session.
func (h *heldInput) track(m ClientMessage) {
	switch m.Type {
	case MessageKey:
		if m.Pressed {
			h.keys[m.Key] = struct{}{}
		} else {
			delete(h.keys, m.Key)
		}
	case MessageAction:
		a, err := input.ParseAction(m.Action)
		if err != nil {
			return
		}
		if m.Pressed {
			h.actions[a] = struct{}{}
		} else {
			delete(h.actions, a)
		}
	}
}

// releases builds the key-up and action-release events for everything still
// held, keys first, in a stable order.
func (h *heldInput) releases(src string) []bus.Event {
	evs := make([]bus.Event, 0, len(h.keys)+len(h.actions))
	for _, k := range slices.Sorted(maps.Keys(h.keys)) {
		evs = append(evs, events.NewKey(src, input.Key(k), false))
	}
	for _, a := range slices.Sorted(maps.Keys(h.actions)) {
		evs = append(evs, events.NewAction(src, a, false))
	}
	return evs
}
