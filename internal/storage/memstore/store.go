// Package memstore keeps listings in process memory. It backs the "memory"
// storage driver and the dialogue tests.
package memstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"maps"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/12farit21/nosql-telegram-bot/internal/listing"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

const idLen = 24

// Store is a mutex-guarded listing repository.
type Store struct {
	mu    sync.RWMutex
	items []listing.Listing
	seq   uint64

	// InsertErr, when set, fails every Insert.
	InsertErr error
	inserts   int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Insert stores a copy of l under a new id.
func (s *Store) Insert(_ context.Context, l listing.Listing) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return "", s.InsertErr
	}
	s.seq++
	s.inserts++
	l = clone(l)
	l.ID = fmt.Sprintf("%0*x", idLen, s.seq)
	s.items = append(s.items, l)
	return l.ID, nil
}

// Find returns up to limit matching records, newest first.
func (s *Store) Find(_ context.Context, q search.Query, limit int) ([]listing.Listing, error) {
	return s.collect(limit, func(l listing.Listing) bool { return Match(q, l) }), nil
}

// FindByOwner returns up to limit records with data.id == ownerID, newest first.
func (s *Store) FindByOwner(_ context.Context, ownerID int64, limit int) ([]listing.Listing, error) {
	return s.collect(limit, func(l listing.Listing) bool { return l.Data.ID == ownerID }), nil
}

// Delete removes the record with id owned by ownerID.
func (s *Store) Delete(_ context.Context, id string, ownerID int64) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", listing.ErrInvalidID, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.items {
		if l.ID == id && l.Data.ID == ownerID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return listing.ErrNotFound
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Inserts reports how many Insert calls succeeded.
func (s *Store) Inserts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inserts
}

// All returns copies of every record in insertion order.
func (s *Store) All() []listing.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]listing.Listing, len(s.items))
	for i, l := range s.items {
		out[i] = clone(l)
	}
	return out
}

func (s *Store) collect(limit int, keep func(listing.Listing) bool) []listing.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []listing.Listing
	for i := len(s.items) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(s.items[i]) {
			out = append(out, clone(s.items[i]))
		}
	}
	return out
}

// Match reports whether l satisfies every clause of q.
func Match(q search.Query, l listing.Listing) bool {
	fold := cases.Fold()
	for _, c := range q.Clauses {
		switch c.Op {
		case search.OpEq:
			v, ok := dataInt(l.Data, c.Key)
			if c.Section != search.SectionData || !ok || v != c.Int {
				return false
			}
		case search.OpContains:
			if c.Section != search.SectionOffer {
				return false
			}
			v, ok := l.Offer[c.Key]
			if !ok || !strings.Contains(fold.String(v), fold.String(c.Text)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func dataInt(d listing.Data, key string) (int64, bool) {
	switch key {
	case "price":
		return d.Price, d.HasPrice
	case "rooms":
		if d.Rooms == nil {
			return 0, false
		}
		return *d.Rooms, true
	}
	return 0, false
}

func validID(id string) bool {
	if len(id) != idLen {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

func clone(l listing.Listing) listing.Listing {
	l.Offer = maps.Clone(l.Offer)
	if l.Data.Rooms != nil {
		r := *l.Data.Rooms
		l.Data.Rooms = &r
	}
	return l
}
