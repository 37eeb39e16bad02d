package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventGroupCreated   = "booking_group_created"
	EventGroupUpdated   = "booking_group_updated"
	EventGroupCancelled = "booking_group_cancelled"
)

// GroupEventPayload describes the minimal booking-group snapshot for
// event consumers.
type GroupEventPayload struct {
	GroupID       string   `json:"group_id"`
	PrevGroupID   string   `json:"prev_group_id,omitempty"`
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	TableIDs      []string `json:"table_ids,omitempty"`
	PartySize     int      `json:"party_size,omitempty"`
	BookingDate   string   `json:"booking_date"`
	BookingTime   string   `json:"booking_time,omitempty"`
}

// DecodeGroupPayload unmarshals a booking-group event payload.
func DecodeGroupPayload(event *Event) (GroupEventPayload, error) {
	var payload GroupEventPayload
	err := json.Unmarshal(event.Payload, &payload)
	return payload, err
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
