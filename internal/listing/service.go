package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/internal/events"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

const component = "service.listings"

// OwnerLimit caps the listings returned for one owner.
const OwnerLimit = 20

// Service persists and queries listings on top of a Repository.
type Service struct {
	repo      Repository
	publisher events.Publisher
	schema    *jsonschema.Schema
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. The default discards events.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service and compiles the embedded document schema.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("listing: nil repository")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	s := &Service{
		repo:      repo,
		publisher: events.Noop{},
		schema:    schema,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create stamps ownership onto the draft and writes it as one record.
// Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, d *Draft, owner Owner) (Listing, error) {
	if d == nil {
		return Listing{}, errors.New("listing: nil draft")
	}
	d = d.Clone()
	d.Data.ID = owner.UserID
	d.Data.OwnerName = owner.Name()
	l := Listing{Offer: d.Offer, Data: d.Data}

	if err := validateDocument(s.schema, l); err != nil {
		logger.Warn(ctx, component, "create.invalid",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return Listing{}, err
	}

	start := time.Now()
	id, err := s.repo.Insert(ctx, l)
	if err != nil {
		logger.Error(ctx, component, "create",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
		return Listing{}, fmt.Errorf("listing: insert: %w", err)
	}
	l.ID = id
	logger.Info(ctx, component, "create",
		slog.String("status", "ok"),
		slog.String("listing_id", id),
		slog.Duration("duration", logger.Took(start)),
	)

	s.publish(ctx, events.Event{
		Type:      events.TypeListingCreated,
		ListingID: id,
		OwnerID:   owner.UserID,
		Title:     l.Data.Title,
	})
	return l, nil
}

// Search returns up to limit records matching q, newest first.
func (s *Service) Search(ctx context.Context, q search.Query, limit int) ([]Listing, error) {
	limit = clampLimit(limit, search.ResultLimit)
	start := time.Now()
	items, err := s.repo.Find(ctx, q, limit)
	if err != nil {
		logger.Error(ctx, component, "search",
			slog.String("status", "error"),
			slog.String("filters", q.String()),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("listing: search: %w", err)
	}
	logger.Info(ctx, component, "search",
		slog.String("status", "ok"),
		slog.String("filters", q.String()),
		slog.Int("limit", limit),
		slog.Int("results", len(items)),
		slog.Duration("duration", logger.Took(start)),
	)
	return items, nil
}

// ByOwner returns up to limit records owned by ownerID, newest first.
func (s *Service) ByOwner(ctx context.Context, ownerID int64, limit int) ([]Listing, error) {
	items, err := s.repo.FindByOwner(ctx, ownerID, clampLimit(limit, OwnerLimit))
	if err != nil {
		return nil, fmt.Errorf("listing: find by owner: %w", err)
	}
	return items, nil
}

// Delete removes the record with id if owner owns it.
func (s *Service) Delete(ctx context.Context, id string, owner Owner) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidID
	}
	if err := s.repo.Delete(ctx, id, owner.UserID); err != nil {
		logger.Warn(ctx, component, "delete",
			slog.String("status", "fail"),
			slog.String("listing_id", id),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Info(ctx, component, "delete",
		slog.String("status", "ok"),
		slog.String("listing_id", id),
	)
	s.publish(ctx, events.Event{
		Type:      events.TypeListingDeleted,
		ListingID: id,
		OwnerID:   owner.UserID,
	})
	return nil
}

// Ping checks the repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish never fails the caller; the record is already stored.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	ev.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn(ctx, component, "event.publish",
			slog.String("status", "fail"),
			slog.String("routing_key", ev.Type),
			slog.String("listing_id", ev.ListingID),
			slog.String("err", err.Error()),
		)
	}
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
