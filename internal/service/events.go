package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventGraphPublished  EventType = "graph_published"
	EventFetchFailed     EventType = "fetch_failed"
	EventCycleSuperseded EventType = "cycle_superseded"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// GraphPublished is the payload of EventGraphPublished
type GraphPublished struct {
	Cycle           uint64 `json:"cycle"`
	CycleID         string `json:"cycle_id"`
	Source          string `json:"source"`
	Nodes           int    `json:"nodes"`
	Edges           int    `json:"edges"`
	Shortcuts       int    `json:"shortcuts"`
	Visible         int    `json:"visible"`
	Mode            string `json:"mode"`
	TopologyChanged bool   `json:"topology_changed"`
}

// FetchFailed is the payload of EventFetchFailed
type FetchFailed struct {
	CycleID string `json:"cycle_id"`
	Source  string `json:"source"`
	Error   string `json:"error"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// EventName names the event on the SSE stream
func (e Event) EventName() string {
	return string(e.Type)
}
