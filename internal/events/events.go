// Package events publishes listing lifecycle events to a message broker.
package events

import (
	"context"
	"time"
)

// Event types double as routing keys.
const (
	TypeListingCreated = "listing.created"
	TypeListingDeleted = "listing.deleted"
)

// Event describes a change to a listing.
type Event struct {
	Type       string    `json:"type"`
	ListingID  string    `json:"listing_id"`
	OwnerID    int64     `json:"owner_id"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
