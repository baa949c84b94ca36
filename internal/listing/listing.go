// Package listing owns the listing record, its draft form and the service
// that persists, searches and deletes listings.
package listing

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

var (
	// ErrNotFound is returned when no listing owned by the caller has the id.
	ErrNotFound = errors.New("listing: not found")
	// ErrInvalidID is returned for ids the backend cannot parse.
	ErrInvalidID = errors.New("listing: invalid id")
)

// Data holds the structured part of a listing.
type Data struct {
	Title    string `bson:"title" json:"title"`
	Price    int64  `bson:"price" json:"price"`
	HasPrice bool   `bson:"hasPrice" json:"hasPrice"`
	Rooms    *int64 `bson:"rooms,omitempty" json:"rooms,omitempty"`
	// ID is the owner's Telegram user id.
	ID        int64  `bson:"id" json:"id"`
	OwnerName string `bson:"ownerName" json:"ownerName"`
	// AddressTitle and SourceID are only present on imported records.
	AddressTitle string `bson:"addressTitle,omitempty" json:"addressTitle,omitempty"`
	SourceID     int64  `bson:"sourceId,omitempty" json:"sourceId,omitempty"`
}

// Listing is a persisted record. ID is assigned by the store.
type Listing struct {
	ID    string            `bson:"-" json:"-"`
	Offer map[string]string `bson:"offer" json:"offer"`
	Data  Data              `bson:"data" json:"data"`
}

// Address returns the display address of the listing, if any.
func (l Listing) Address() string {
	if l.Data.AddressTitle != "" {
		return l.Data.AddressTitle
	}
	return l.Offer["addressTitle"]
}

// Draft is a listing under construction.
type Draft struct {
	Offer map[string]string
	Data  Data
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{Offer: make(map[string]string)}
}

// Clone returns a deep copy of d.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := &Draft{Offer: maps.Clone(d.Offer), Data: d.Data}
	if out.Offer == nil {
		out.Offer = make(map[string]string)
	}
	if d.Data.Rooms != nil {
		r := *d.Data.Rooms
		out.Data.Rooms = &r
	}
	return out
}

// Owner identifies the Telegram user creating or deleting listings.
type Owner struct {
	UserID int64
}

// Name is the owner label stored in data.ownerName.
func (o Owner) Name() string {
	return fmt.Sprintf("id%d", o.UserID)
}

// Repository persists listings. Implementations return ErrNotFound and
// ErrInvalidID (possibly wrapped) from Delete.
type Repository interface {
	Insert(ctx context.Context, l Listing) (string, error)
	Find(ctx context.Context, q search.Query, limit int) ([]Listing, error)
	FindByOwner(ctx context.Context, ownerID int64, limit int) ([]Listing, error)
	Delete(ctx context.Context, id string, ownerID int64) error
	Ping(ctx context.Context) error
}
