package bus

import "time"

// EventBus is an in-process pub/sub bus used to hand input, lock and scene
// events to the simulation.
//
// - Type-based fan-out: handlers subscribe by Event.Type().
// - Synchronous delivery: Publish runs handlers in the caller goroutine, in
//   subscription order, so a tick that drains its queue sees every effect.
// - Error aggregation: handler errors are joined and returned from Publish.
// - All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type().
	Publish(event Event) error
	// PublishBatch publishes events in order and aggregates errors across them.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. A nil subscription is a no-op.
	Unsubscribe(Subscription) error

	// AddObserver registers an observer to receive delivery callbacks.
	AddObserver(obs EventBusObserver)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of accumulated counters.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified after each delivery. Observers should return quickly.
type EventBusObserver interface {
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

// EventBusMetrics holds delivery counters.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
