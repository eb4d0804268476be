// Package events carries change notifications from the write path to the
// live dashboard push. A Bus fans events out within the process; an
// AMQPClient relays them through a RabbitMQ fanout exchange so every
// instance sees writes made on any other.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Kind names what changed.
type Kind string

const (
	CategoryCreated    Kind = "category.created"
	TransactionCreated Kind = "transaction.created"
	TransactionDeleted Kind = "transaction.deleted"
)

// Event is a change to one user's data.
type Event struct {
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"user_id"`
	ResourceID string    `json:"resource_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event stamped with the current time.
func New(kind Kind, userID, resourceID string) Event {
	return Event{Kind: kind, UserID: userID, ResourceID: resourceID, OccurredAt: time.Now().UTC()}
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Encode serializes an event for the wire.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an event from the wire and rejects ones without a user.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.UserID == "" || e.Kind == "" {
		return Event{}, fmt.Errorf("decode event: missing kind or user_id")
	}
	return e, nil
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
