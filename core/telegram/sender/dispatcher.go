// Package sender delivers outbound Bot API calls off the handler goroutine.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the chat's lane has no room.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run func")
)

// Options tune a Dispatcher. Zero fields take defaults.
type Options struct {
	// Lanes is the number of delivery goroutines. Calls for one chat always
	// share a lane, so a chat sees its replies in order.
	Lanes int
	// LaneBuffer bounds the calls waiting in each lane.
	LaneBuffer int
	// Attempts is the total number of tries per call.
	Attempts int
	Backoff  netutil.Backoff
	// JobTimeout bounds the time one call may spend retrying.
	JobTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Lanes <= 0 {
		o.Lanes = 4
	}
	if o.LaneBuffer <= 0 {
		o.LaneBuffer = 64
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.Backoff.Step <= 0 {
		o.Backoff.Step = 2 * time.Second
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 15 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Dispatcher runs queued calls with retries on transient failures.
type Dispatcher struct {
	opts  Options
	lanes []chan job
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewDispatcher starts the lane goroutines; Close stops them.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, lanes: make([]chan job, opts.Lanes)}
	d.wg.Add(opts.Lanes)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, opts.LaneBuffer)
		go d.drain(d.lanes[i])
	}
	return d
}

// Enqueue schedules run on the lane of the chat recorded in ctx. run may be
// called more than once.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.lanes[d.lane(logger.ChatIDFrom(ctx))] <- job{ctx: ctx, action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) lane(chatID int64) int {
	i := chatID % int64(len(d.lanes))
	if i < 0 {
		i = -i
	}
	return int(i)
}

// Stats returns the number of delivered and failed calls.
func (d *Dispatcher) Stats() (sent, failed uint64) {
	return d.sent.Load(), d.failed.Load()
}

// Close rejects new calls and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, l := range d.lanes {
			close(l)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) drain(lane <-chan job) {
	defer d.wg.Done()
	for j := range lane {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	attempt, err := netutil.Retry(ctx, d.opts.Backoff, d.opts.Attempts, j.run, func(err error, try int, wait time.Duration) {
		logger.Debug(ctx, "tg.sender", "send.retry",
			slog.String("action", j.action),
			slog.Int("attempt", try),
			slog.String("err_code", string(netutil.Classify(err))),
			slog.Duration("wait", wait),
		)
	})

	if err == nil {
		d.sent.Add(1)
		if attempt > 1 || logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg.sender", "send.done",
				slog.String("status", "ok"),
				slog.String("action", j.action),
				slog.Int("attempts", attempt),
				slog.Duration("duration", logger.Took(start)),
			)
		}
		return
	}
	d.failed.Add(1)
	logger.Error(ctx, "tg.sender", "send.done",
		slog.String("status", "fail"),
		slog.String("action", j.action),
		slog.Int("attempts", attempt),
		slog.String("err", logger.SanitizeLimit(netutil.Redact(err), 256)),
		slog.String("err_code", string(netutil.Classify(err))),
		slog.Duration("duration", logger.Took(start)),
	)
}
