package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/netutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, 1, chatID)
}

var fastBackoff = netutil.Backoff{Step: time.Millisecond}

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 4, LaneBuffer: 100})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, chat := range []int64{1, 2, -3} {
			require.NoError(t, d.Enqueue(chatCtx(chat), "send.text", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	d.Close()

	for _, chat := range []int64{1, 2, -3} {
		require.Len(t, got[chat], 50)
		for i, v := range got[chat] {
			assert.Equal(t, i, v, "chat %d", chat)
		}
	}
	sent, failed := d.Stats()
	assert.Equal(t, uint64(150), sent)
	assert.Zero(t, failed)
}

func TestDispatcherRetries(t *testing.T) {
	transient := &net.OpError{Op: "dial", Err: errors.New("refused")}
	tests := []struct {
		name     string
		errs     []error
		attempts int
		calls    int
		failed   bool
	}{
		{name: "recovers", errs: []error{transient, transient}, attempts: 3, calls: 3},
		{name: "exhausted", errs: []error{transient, transient, transient}, attempts: 3, calls: 3, failed: true},
		{name: "permanent", errs: []error{errors.New("chat not found")}, attempts: 3, calls: 1, failed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(Options{Lanes: 1, Attempts: tt.attempts, Backoff: fastBackoff})
			calls := 0
			require.NoError(t, d.Enqueue(chatCtx(1), "send.text", func() error {
				calls++
				if calls <= len(tt.errs) {
					return tt.errs[calls-1]
				}
				return nil
			}))
			d.Close()

			assert.Equal(t, tt.calls, calls)
			_, failed := d.Stats()
			assert.Equal(t, tt.failed, failed == 1)
		})
	}
}

func TestDispatcherGivesUpAtTimeout(t *testing.T) {
	d := NewDispatcher(Options{
		Lanes:      1,
		Attempts:   10,
		Backoff:    netutil.Backoff{Step: time.Hour},
		JobTimeout: 20 * time.Millisecond,
	})
	calls := 0
	require.NoError(t, d.Enqueue(chatCtx(1), "send.text", func() error {
		calls++
		return context.DeadlineExceeded
	}))
	d.Close()

	assert.Equal(t, 1, calls)
	_, failed := d.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestDispatcherQueueFullAndClosed(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, LaneBuffer: 1})

	started, release := make(chan struct{}), make(chan struct{})
	require.NoError(t, d.Enqueue(chatCtx(1), "block", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(chatCtx(1), "queued", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(chatCtx(1), "overflow", func() error { return nil }), ErrQueueFull)

	close(release)
	d.Close()
	d.Close()

	assert.ErrorIs(t, d.Enqueue(chatCtx(1), "late", func() error { return nil }), ErrQueueClosed)
	assert.Error(t, d.Enqueue(chatCtx(1), "nil", nil))
	sent, _ := d.Stats()
	assert.Equal(t, uint64(2), sent)
}
