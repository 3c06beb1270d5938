package service

import "sync"

// Actions carried by bus events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event announces a mutation of a stored map so open editor streams can
// refresh without polling.
type Event struct {
	Resource string // "maps"
	Action   string // ActionCreated, ActionUpdated, ActionDeleted
	ID       string // map ID
}

// subscriberBuffer sizes each subscriber channel. A subscriber that falls
// this far behind starts missing events rather than stalling publishers.
const subscriberBuffer = 16

// EventBus fans out events to subscribers. Publishing never blocks.
type EventBus struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[chan Event]struct{})}
}

// Publish delivers e to every subscriber that has buffer room.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.listeners {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new listener channel.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.listeners, ch)
	b.mu.Unlock()
	close(ch)
}

// DefaultBus carries map mutation events for the whole process.
var DefaultBus = NewEventBus()
