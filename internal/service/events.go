package service

import (
	"sync"
	"sync/atomic"
)

// EventType defines the type of event
type EventType string

const (
	EventDeviceAdded    EventType = "device_added"
	EventDeviceUpdated  EventType = "device_updated"
	EventDeviceDeleted  EventType = "device_deleted"
	EventPlacementSet   EventType = "placement_set"
	EventPlacementClear EventType = "placement_cleared"
	EventStatusChanged  EventType = "status_changed"
	EventRegistrySeeded EventType = "registry_seeded"
)

// Event represents an event that occurred in the engine
type Event struct {
	Type    EventType `json:"type"`
	Seq     uint64    `json:"seq"`
	Payload any       `json:"payload,omitempty"`
}

// EventBus fans committed mutations out to subscribers. Delivery never
// blocks the planner: a subscriber whose channel is full misses the event
// and the drop is counted.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan<- Event
	nextID  uint64
	dropped atomic.Uint64
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[uint64]chan<- Event)}
}

// Subscribe registers ch and returns a function that removes it. The
// returned function is safe to call more than once.
func (eb *EventBus) Subscribe(ch chan<- Event) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	id := eb.nextID
	eb.subs[id] = ch

	var once sync.Once
	return func() {
		once.Do(func() {
			eb.mu.Lock()
			delete(eb.subs, id)
			eb.mu.Unlock()
		})
	}
}

// Subscribers reports how many channels are registered
func (eb *EventBus) Subscribers() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber
// channel was full
func (eb *EventBus) Dropped() uint64 {
	return eb.dropped.Load()
}

// Publish delivers event to every subscriber that has room for it
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subs {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}
