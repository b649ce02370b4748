package domain

import (
	"encoding/json"
	"time"
)

// ChangeEvent is the envelope delivered to downstream receivers when an
// inventory entity changes. The payload carries the full audit event.
type ChangeEvent struct {
	EventID    string          `json:"event_id"`
	Kind       string          `json:"kind"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// OutboxEvent is a ChangeEvent queued for delivery with retry state.
type OutboxEvent struct {
	ID            int64
	EventID       string
	Topic         string
	PayloadJSON   json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
