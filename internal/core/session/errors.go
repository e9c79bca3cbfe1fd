package session

import "errors"

var (
	ErrQueueFull       = errors.New("session event queue is full")
	ErrUnexpectedEvent = errors.New("unexpected event payload")
	ErrAlreadyRunning  = errors.New("session is already running")
)
