package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/12farit21/nosql-telegram-bot/internal/events"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

type fakeRepo struct {
	inserted  []Listing
	insertErr error
	deleteErr error
	lastLimit int
	found     []Listing
}

func (f *fakeRepo) Insert(_ context.Context, l Listing) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, l)
	return "id-1", nil
}

func (f *fakeRepo) Find(_ context.Context, _ search.Query, limit int) ([]Listing, error) {
	f.lastLimit = limit
	return f.found, nil
}

func (f *fakeRepo) FindByOwner(_ context.Context, _ int64, limit int) ([]Listing, error) {
	f.lastLimit = limit
	return f.found, nil
}

func (f *fakeRepo) Delete(context.Context, string, int64) error { return f.deleteErr }

func (f *fakeRepo) Ping(context.Context) error { return nil }

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func newTestService(t *testing.T, repo Repository, pub events.Publisher) *Service {
	t.Helper()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, err := NewService(repo, WithPublisher(pub), WithClock(func() time.Time { return at }))
	require.NoError(t, err)
	return svc
}

func TestCreateWritesOneRecord(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	svc := newTestService(t, repo, pub)

	d := NewDraft()
	d.Data.Title = "2-комн. квартира"
	d.Data.Price = 25000000
	d.Data.HasPrice = true
	d.Offer["City"] = "Алматы"

	got, err := svc.Create(context.Background(), d, Owner{UserID: 42})
	require.NoError(t, err)
	require.Len(t, repo.inserted, 1)

	want := Listing{
		Offer: map[string]string{"City": "Алматы"},
		Data: Data{
			Title:     "2-комн. квартира",
			Price:     25000000,
			HasPrice:  true,
			ID:        42,
			OwnerName: "id42",
		},
	}
	if diff := cmp.Diff(want, repo.inserted[0]); diff != "" {
		t.Fatalf("stored record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "id-1", got.ID)
	assert.Zero(t, d.Data.ID, "draft is not mutated")

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.Event{
		Type:       events.TypeListingCreated,
		ListingID:  "id-1",
		OwnerID:    42,
		Title:      "2-комн. квартира",
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, pub.events[0])
}

func TestCreateRejectsInvalidDocument(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &recordingPublisher{})

	d := NewDraft()
	d.Data.Price = 1
	d.Data.HasPrice = true

	_, err := svc.Create(context.Background(), d, Owner{UserID: 1})
	require.Error(t, err, "empty title")
	assert.Empty(t, repo.inserted)
}

func TestCreateInsertFailure(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &fakeRepo{insertErr: boom}
	pub := &recordingPublisher{}
	svc := newTestService(t, repo, pub)

	d := NewDraft()
	d.Data.Title = "t"
	d.Data.HasPrice = true

	_, err := svc.Create(context.Background(), d, Owner{UserID: 1})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, pub.events)
}

func TestCreatePublishFailureDoesNotFail(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &recordingPublisher{err: errors.New("broker down")})

	d := NewDraft()
	d.Data.Title = "t"
	d.Data.HasPrice = true

	_, err := svc.Create(context.Background(), d, Owner{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, repo.inserted, 1)
}

func TestSearchClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, nil)

	_, err := svc.Search(context.Background(), search.Query{}, 100)
	require.NoError(t, err)
	assert.Equal(t, search.ResultLimit, repo.lastLimit)

	_, err = svc.Search(context.Background(), search.Query{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lastLimit)

	_, err = svc.ByOwner(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, OwnerLimit, repo.lastLimit)
}

func TestDelete(t *testing.T) {
	pub := &recordingPublisher{}
	repo := &fakeRepo{}
	svc := newTestService(t, repo, pub)

	require.NoError(t, svc.Delete(context.Background(), "abc", Owner{UserID: 5}))
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeListingDeleted, pub.events[0].Type)

	assert.ErrorIs(t, svc.Delete(context.Background(), " ", Owner{UserID: 5}), ErrInvalidID)

	repo.deleteErr = ErrNotFound
	assert.ErrorIs(t, svc.Delete(context.Background(), "abc", Owner{UserID: 5}), ErrNotFound)
	assert.Len(t, pub.events, 1)
}

func TestDraftClone(t *testing.T) {
	r := int64(2)
	d := &Draft{Offer: map[string]string{"a": "1"}, Data: Data{Rooms: &r}}
	c := d.Clone()
	c.Offer["a"] = "2"
	*c.Data.Rooms = 3
	assert.Equal(t, "1", d.Offer["a"])
	assert.Equal(t, int64(2), *d.Data.Rooms)
	assert.Nil(t, (*Draft)(nil).Clone())
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "x", Listing{Data: Data{AddressTitle: "x"}, Offer: map[string]string{"addressTitle": "y"}}.Address())
	assert.Equal(t, "y", Listing{Offer: map[string]string{"addressTitle": "y"}}.Address())
	assert.Empty(t, Listing{}.Address())
}
