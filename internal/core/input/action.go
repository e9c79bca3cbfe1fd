package input

import (
	"errors"
	"fmt"
	"strings"
)

// Action is a logical movement intent, decoupled from physical keys.
type Action uint8

const (
	ActionNone Action = iota
	ActionForward
	ActionBackward
	ActionLeft
	ActionRight

	actionCount
)

var ErrUnknownAction = errors.New("unknown action")

var actionNames = [...]string{
	ActionNone:     "none",
	ActionForward:  "forward",
	ActionBackward: "backward",
	ActionLeft:     "left",
	ActionRight:    "right",
}

func (a Action) String() string {
	if a >= actionCount {
		return fmt.Sprintf("action(%d)", a)
	}
	return actionNames[a]
}

// Valid reports whether a names one of the four movement actions.
func (a Action) Valid() bool {
	return a > ActionNone && a < actionCount
}

// ParseAction resolves a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for a := ActionForward; a < actionCount; a++ {
		if actionNames[a] == name {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Mode selects how several keys bound to the same action combine.
type Mode uint8

const (
	// ModeRefCount keeps an action active while any bound key is held.
	ModeRefCount Mode = iota
	// ModeLatch clears an action on the first release of any bound key.
	ModeLatch
)

var ErrUnknownMode = errors.New("unknown input mode")

func (m Mode) String() string {
	switch m {
	case ModeRefCount:
		return "refcount"
	case ModeLatch:
		return "latch"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "refcount":
		return ModeRefCount, nil
	case "latch":
		return ModeLatch, nil
	default:
		return ModeRefCount, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
