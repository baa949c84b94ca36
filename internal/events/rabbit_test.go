package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls  []publishCall
	err    error
	closed int
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed++
	return nil
}

func TestRabbitPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitPublisher(ch, "listings")

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		Type:       TypeListingCreated,
		ListingID:  "abc",
		OwnerID:    42,
		Title:      "Квартира",
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, ch.calls, 1)

	call := ch.calls[0]
	assert.Equal(t, "listings", call.exchange)
	assert.Equal(t, TypeListingCreated, call.key)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
	assert.NotEmpty(t, call.msg.MessageId)
	assert.Equal(t, at, call.msg.Timestamp)

	var got Event
	require.NoError(t, json.Unmarshal(call.msg.Body, &got))
	assert.Equal(t, "abc", got.ListingID)
	assert.Equal(t, int64(42), got.OwnerID)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestRabbitPublishError(t *testing.T) {
	boom := errors.New("boom")
	p := newRabbitPublisher(&fakeChannel{err: boom}, "listings")

	err := p.Publish(context.Background(), Event{Type: TypeListingDeleted})
	assert.ErrorIs(t, err, boom)
}

func TestRabbitClose(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitPublisher(ch, "listings")

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, ch.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), Event{Type: TypeListingCreated}), ErrClosed)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
