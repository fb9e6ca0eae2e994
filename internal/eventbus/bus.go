package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies a task lifecycle event.
type EventType string

const (
	EventTaskCreated        EventType = "task.created"
	EventTaskStarted        EventType = "task.started"
	EventTaskCompleted      EventType = "task.completed"
	EventTaskFailed         EventType = "task.failed"
	EventTaskCancelled      EventType = "task.cancelled"
	EventExecutionEscalated EventType = "execution.escalated"
)

// Event is an immutable record published on the bus. Delivery to in-process
// subscribers is best effort; durable at-least-once delivery is the concern
// of whatever bridges the bus to an external broker.
type Event struct {
	ID         string
	Type       EventType
	ResourceID string
	Payload    string
	Metadata   map[string]string
	CreatedAt  time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, resourceID string, payload string, metadata map[string]string) {
	event := &Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ResourceID: resourceID,
		Payload:    payload,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	}
	b.Publish(event)
}
