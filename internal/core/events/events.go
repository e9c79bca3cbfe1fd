package events

import (
	"github.com/zeusync/fpnav/internal/core/events/bus"
	"github.com/zeusync/fpnav/internal/core/input"
)

// Event types routed through the session bus.
const (
	TypeKey       = "input.key"
	TypeAction    = "input.action"
	TypeLock      = "input.lock"
	TypeLook      = "input.look"
	TypeCollision = "motion.collision"
	TypeTick      = "session.tick"
)

// Key is a physical key edge.
type Key struct {
	Key     input.Key
	Pressed bool
}

// Action is a logical action edge, bypassing the key map.
type Action struct {
	Action  input.Action
	Pressed bool
}

// Lock toggles whether the simulation integrates motion.
type Lock struct {
	Locked bool
}

// Look is a pointer movement delta in device units.
type Look struct {
	DX, DY float64
}

func NewKey(src string, k input.Key, pressed bool) bus.Event {
	return bus.NewEvent(TypeKey, src, Key{Key: k, Pressed: pressed})
}

func NewAction(src string, a input.Action, pressed bool) bus.Event {
	return bus.NewEvent(TypeAction, src, Action{Action: a, Pressed: pressed})
}

func NewLock(src string, locked bool) bus.Event {
	return bus.NewEvent(TypeLock, src, Lock{Locked: locked})
}

func NewLook(src string, dx, dy float64) bus.Event {
	return bus.NewEvent(TypeLook, src, Look{DX: dx, DY: dy})
}
