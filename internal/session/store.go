// Package session keeps per-user dialogue state: search filters, the listing
// draft and the pending conversation step.
package session

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/state"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
)

// Conversation steps.
const (
	StateIdle         = state.StateIdle
	StateFilterValue  state.State = "filter.value"
	StateListingTitle state.State = "listing.title"
	StateListingPrice state.State = "listing.price"
	StateListingField state.State = "listing.field"
)

const (
	keyFilters = "filters"
	keyDraft   = "draft"
	keyField   = "field"
)

// Store wraps a state.Manager with typed accessors.
type Store struct {
	mgr state.Manager
}

// New wraps mgr.
func New(mgr state.Manager) *Store {
	return &Store{mgr: mgr}
}

// Filters returns a copy of the user's filter criteria.
func (s *Store) Filters(userID int64) map[string]string {
	v, ok := s.mgr.GetTemp(userID, keyFilters)
	if !ok {
		return map[string]string{}
	}
	return maps.Clone(v.(map[string]string))
}

// SetFilter sets one criterion, replacing any previous value for key.
func (s *Store) SetFilter(userID int64, key, value string) {
	s.mgr.UpdateTemp(userID, keyFilters, func(old any, ok bool) any {
		next := map[string]string{}
		if ok {
			next = maps.Clone(old.(map[string]string))
		}
		next[key] = value
		return next
	})
}

// ClearFilters empties the user's criteria.
func (s *Store) ClearFilters(userID int64) {
	s.mgr.ClearTemp(userID, keyFilters)
}

// Draft returns a copy of the user's listing draft.
func (s *Store) Draft(userID int64) (*listing.Draft, bool) {
	v, ok := s.mgr.GetTemp(userID, keyDraft)
	if !ok {
		return nil, false
	}
	return v.(*listing.Draft).Clone(), true
}

// PutDraft stores a copy of d.
func (s *Store) PutDraft(userID int64, d *listing.Draft) {
	s.mgr.SetTemp(userID, keyDraft, d.Clone())
}

// DeleteDraft drops the user's draft.
func (s *Store) DeleteDraft(userID int64) {
	s.mgr.ClearTemp(userID, keyDraft)
}

// State returns the pending step.
func (s *Store) State(userID int64) state.State {
	return s.mgr.GetState(userID)
}

// Field returns the catalog key the pending step refers to.
func (s *Store) Field(userID int64) string {
	v, ok := s.mgr.GetTemp(userID, keyField)
	if !ok {
		return ""
	}
	f, _ := v.(string)
	return f
}

// SetState moves the user to st; field is kept for steps that need one.
func (s *Store) SetState(userID int64, st state.State, field string) {
	if field == "" {
		s.mgr.ClearTemp(userID, keyField)
	} else {
		s.mgr.SetTemp(userID, keyField, field)
	}
	s.mgr.SetState(userID, st)
}

// Idle drops the pending step, keeping filters and draft.
func (s *Store) Idle(userID int64) {
	s.mgr.ClearTemp(userID, keyField)
	s.mgr.ClearState(userID)
}

// Reset drops the pending step and the draft, keeping filters.
func (s *Store) Reset(userID int64) {
	s.DeleteDraft(userID)
	s.Idle(userID)
}

// InProgress reports whether the user has a pending step.
func (s *Store) InProgress(userID int64) bool {
	return s.mgr.InProgress(userID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.mgr.Len()
}

// Janitor sweeps idle sessions every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.mgr.Sweep(); n > 0 {
				logger.Info(ctx, "dialogue", "sessions.sweep",
					slog.Int("evicted", n),
					slog.Int("sessions", s.mgr.Len()),
				)
			}
		}
	}
}
