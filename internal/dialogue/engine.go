// Package dialogue implements the bot conversation: building search filters,
// running searches and collecting a listing field by field. The engine is
// transport-agnostic; every operation returns the replies to send.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/internal/catalog"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
	"github.com/12farit21/nosql-telegram-bot/internal/session"
)

const component = "dialogue"

// Actor identifies who sent an update.
type Actor struct {
	UserID   int64
	ChatID   int64
	Username string
}

func (a Actor) owner() listing.Owner {
	return listing.Owner{UserID: a.UserID}
}

// Listings is the listing service as seen by the engine.
type Listings interface {
	Create(ctx context.Context, d *listing.Draft, owner listing.Owner) (listing.Listing, error)
	Search(ctx context.Context, q search.Query, limit int) ([]listing.Listing, error)
	ByOwner(ctx context.Context, ownerID int64, limit int) ([]listing.Listing, error)
	Delete(ctx context.Context, id string, owner listing.Owner) error
}

// Engine drives conversations for all users.
type Engine struct {
	cat      *catalog.Catalog
	sessions *session.Store
	listings Listings
}

// New builds an Engine.
func New(cat *catalog.Catalog, sessions *session.Store, listings Listings) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Engine{cat: cat, sessions: sessions, listings: listings}
}

// Start resets the user's filters and pending step and shows the main menu.
func (e *Engine) Start(ctx context.Context, a Actor) []Reply {
	e.sessions.ClearFilters(a.UserID)
	e.sessions.Reset(a.UserID)
	return e.menuReply(msgChooseParams + "\n" + msgNoParams)
}

// Cancel drops the pending step and draft, keeping filters.
func (e *Engine) Cancel(ctx context.Context, a Actor) []Reply {
	e.sessions.Reset(a.UserID)
	return e.menuReply(msgCancelled + "\n" + e.summary(e.sessions.Filters(a.UserID)))
}

// SelectFilter asks for the value of filter key.
func (e *Engine) SelectFilter(ctx context.Context, a Actor, key string) []Reply {
	if !e.cat.Has(key) {
		return e.menuReply(msgUnknownFilter)
	}
	// One pending step per user: an unfinished listing is abandoned.
	e.sessions.DeleteDraft(a.UserID)
	e.sessions.SetState(a.UserID, session.StateFilterValue, key)
	return prompt(fmt.Sprintf(msgEnterValue, e.cat.Label(key)))
}

// ClearFilters empties the user's filters.
func (e *Engine) ClearFilters(ctx context.Context, a Actor) []Reply {
	e.sessions.ClearFilters(a.UserID)
	return e.menuReply(msgFiltersCleared)
}

// HandleText feeds a text message into the user's pending step.
func (e *Engine) HandleText(ctx context.Context, a Actor, text string) []Reply {
	st := e.sessions.State(a.UserID)
	logger.Debug(ctx, component, "text",
		slog.String("state", string(st)),
		slog.String("field", e.sessions.Field(a.UserID)),
	)
	if st == session.StateIdle {
		return e.menuReply(msgUnknownInput)
	}

	value := strings.TrimSpace(text)
	if value == "" {
		return plain(msgEmptyInput)
	}

	switch st {
	case session.StateFilterValue:
		return e.saveFilter(ctx, a, value)
	case session.StateListingTitle:
		return e.saveTitle(ctx, a, value)
	case session.StateListingPrice:
		return e.savePrice(ctx, a, value)
	case session.StateListingField:
		return e.saveField(ctx, a, value)
	}

	logger.Warn(ctx, component, "state.unknown", slog.String("state", string(st)))
	e.sessions.Reset(a.UserID)
	return e.menuReply(msgUnknownInput)
}

func (e *Engine) saveFilter(ctx context.Context, a Actor, value string) []Reply {
	key := e.sessions.Field(a.UserID)
	if key == "" {
		e.sessions.Idle(a.UserID)
		return e.menuReply(msgUnknownInput)
	}
	e.sessions.SetFilter(a.UserID, key, value)
	e.sessions.Idle(a.UserID)

	filters := e.sessions.Filters(a.UserID)
	logger.Info(ctx, component, "filter.set",
		slog.String("field", key),
		slog.Int("filters", len(filters)),
	)
	text := fmt.Sprintf(msgFilterAdded, e.cat.Label(key), value) + "\n" + e.summary(filters)
	return e.menuReply(text)
}

// Search runs the user's filters against the store.
func (e *Engine) Search(ctx context.Context, a Actor) []Reply {
	q, err := search.Translate(e.cat, e.sessions.Filters(a.UserID))
	if err != nil {
		if fe, ok := search.AsFieldError(err); ok {
			logger.Info(ctx, component, "search.rejected",
				slog.String("field", fe.Key),
				slog.String("err_code", fe.Code()),
			)
			return plain(fmt.Sprintf(msgNotANumber, fe.Label))
		}
		return e.menuReply(fmt.Sprintf(msgSearchFailed, err))
	}

	items, err := e.listings.Search(ctx, q, search.ResultLimit)
	if err != nil {
		return e.menuReply(fmt.Sprintf(msgSearchFailed, err))
	}
	return e.results(items, msgNothingFound)
}

// MyListings shows the user's own listings.
func (e *Engine) MyListings(ctx context.Context, a Actor) []Reply {
	items, err := e.listings.ByOwner(ctx, a.UserID, listing.OwnerLimit)
	if err != nil {
		return e.menuReply(fmt.Sprintf(msgSearchFailed, err))
	}
	return e.results(items, msgNoListings)
}

func (e *Engine) results(items []listing.Listing, empty string) []Reply {
	if len(items) == 0 {
		return e.menuReply(empty)
	}
	pages := renderResults(items)
	replies := make([]Reply, len(pages))
	for i, text := range pages {
		replies[i] = Reply{Text: text, Markdown: true}
	}
	replies[len(replies)-1].Keyboard = e.mainMenu()
	return replies
}

// StartListing begins a new draft and asks for its title.
func (e *Engine) StartListing(ctx context.Context, a Actor) []Reply {
	e.sessions.PutDraft(a.UserID, listing.NewDraft())
	e.sessions.SetState(a.UserID, session.StateListingTitle, "")
	return prompt(msgEnterTitle)
}

func (e *Engine) saveTitle(ctx context.Context, a Actor, title string) []Reply {
	d, ok := e.sessions.Draft(a.UserID)
	if !ok {
		d = listing.NewDraft()
	}
	d.Data.Title = title
	e.sessions.PutDraft(a.UserID, d)
	e.sessions.SetState(a.UserID, session.StateListingPrice, "")
	return prompt(msgEnterPrice)
}

func (e *Engine) savePrice(ctx context.Context, a Actor, text string) []Reply {
	d, ok := e.sessions.Draft(a.UserID)
	if !ok {
		return e.restartListing(ctx, a)
	}
	price, err := catalog.ParseInt(text)
	if err != nil {
		return prompt(msgPriceNotNumber)
	}
	d.Data.Price = price
	d.Data.HasPrice = true
	e.sessions.PutDraft(a.UserID, d)
	return e.askNext(ctx, a, d)
}

func (e *Engine) saveField(ctx context.Context, a Actor, value string) []Reply {
	d, ok := e.sessions.Draft(a.UserID)
	key := e.sessions.Field(a.UserID)
	if !ok || key == "" {
		return e.restartListing(ctx, a)
	}
	if key == catalog.KeyRooms {
		n, err := catalog.ParseInt(value)
		if err != nil {
			return prompt(msgRoomsNotNumber)
		}
		d.Data.Rooms = &n
	}
	d.Offer[key] = value
	e.sessions.PutDraft(a.UserID, d)
	return e.askNext(ctx, a, d)
}

// askNext prompts for the first catalog field the draft lacks, or commits.
// Title and price have their own steps and never enter offer.
func (e *Engine) askNext(ctx context.Context, a Actor, d *listing.Draft) []Reply {
	next, ok := e.cat.Next(func(key string) bool {
		if key == catalog.KeyTitle || key == catalog.KeyPrice {
			return true
		}
		_, answered := d.Offer[key]
		return answered
	})
	if !ok {
		return e.commit(ctx, a, d)
	}
	e.sessions.SetState(a.UserID, session.StateListingField, next.Key)
	return prompt(fmt.Sprintf(msgEnterValue, next.Label))
}

func (e *Engine) commit(ctx context.Context, a Actor, d *listing.Draft) []Reply {
	// The draft is dropped whatever the outcome; the user starts over on failure.
	defer e.sessions.Reset(a.UserID)

	l, err := e.listings.Create(ctx, d, a.owner())
	if err != nil {
		logger.Warn(ctx, component, "listing.commit",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return e.menuReply(fmt.Sprintf(msgSaveFailed, err))
	}
	logger.Info(ctx, component, "listing.commit",
		slog.String("status", "ok"),
		slog.String("listing_id", l.ID),
	)
	return e.menuReply(msgListingAdded)
}

func (e *Engine) restartListing(ctx context.Context, a Actor) []Reply {
	logger.Warn(ctx, component, "draft.missing", slog.String("state", string(e.sessions.State(a.UserID))))
	e.sessions.PutDraft(a.UserID, listing.NewDraft())
	e.sessions.SetState(a.UserID, session.StateListingTitle, "")
	return prompt(msgDraftLost + "\n" + msgEnterTitle)
}

// ChooseDelete lists the user's listings as delete buttons.
func (e *Engine) ChooseDelete(ctx context.Context, a Actor) []Reply {
	items, err := e.listings.ByOwner(ctx, a.UserID, listing.OwnerLimit)
	if err != nil {
		return e.menuReply(fmt.Sprintf(msgSearchFailed, err))
	}
	if len(items) == 0 {
		return e.menuReply(msgNoListings)
	}
	rows := make([][]Button, 0, len(items)+1)
	for _, l := range items {
		rows = append(rows, []Button{{Text: buttonText(l.Data.Title), Action: ActionDelete, Payload: l.ID}})
	}
	rows = append(rows, []Button{{Text: btnCancel, Action: ActionCancel}})
	return []Reply{{Text: msgChooseDelete, Keyboard: &Keyboard{Rows: rows}}}
}

// Delete removes one of the user's listings.
func (e *Engine) Delete(ctx context.Context, a Actor, id string) []Reply {
	if err := e.listings.Delete(ctx, id, a.owner()); err != nil {
		return e.menuReply(fmt.Sprintf(msgDeleteFailed, deleteCause(err)))
	}
	return e.menuReply(msgDeleted)
}

func deleteCause(err error) string {
	switch {
	case errors.Is(err, listing.ErrNotFound):
		return msgCauseNotFound
	case errors.Is(err, listing.ErrInvalidID):
		return msgCauseInvalidID
	}
	return err.Error()
}
