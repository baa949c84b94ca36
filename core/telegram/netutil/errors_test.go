package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  Kind
		retry bool
	}{
		{name: "nil", err: nil, kind: KindNone},
		{name: "deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded), kind: KindTimeout, retry: true},
		{name: "url timeout", err: &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, kind: KindTimeout, retry: true},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, kind: KindDNS},
		{name: "dial", err: &url.Error{Op: "Post", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, kind: KindDial, retry: true},
		{name: "flood", err: tele.FloodError{RetryAfter: 3}, kind: KindFlood, retry: true},
		{name: "api 400", err: &tele.Error{Code: 400, Description: "Bad Request"}, kind: KindHTTP4xx},
		{name: "api 502 in text", err: errors.New("telegram: Bad Gateway (502)"), kind: KindHTTP5xx, retry: true},
		{name: "other", err: errors.New("boom"), kind: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Classify(tt.err))
			assert.Equal(t, tt.retry, ShouldRetry(tt.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 429, StatusCode(tele.FloodError{RetryAfter: 1}))
	assert.Equal(t, 403, StatusCode(fmt.Errorf("wrap: %w", &tele.Error{Code: 403})))
	assert.Equal(t, 0, StatusCode(errors.New("no code ()")))
}

func TestRetry(t *testing.T) {
	fast := Backoff{Step: time.Millisecond}
	transient := &net.OpError{Op: "dial", Err: errors.New("refused")}
	fatal := errors.New("bad request")

	tests := []struct {
		name     string
		errs     []error
		attempts int
		tries    int
		wantErr  error
	}{
		{name: "first try", attempts: 3, tries: 1},
		{name: "recovers", errs: []error{transient, transient}, attempts: 3, tries: 3},
		{name: "exhausted", errs: []error{transient, transient, transient}, attempts: 3, tries: 3, wantErr: transient},
		{name: "not retryable", errs: []error{fatal}, attempts: 3, tries: 1, wantErr: fatal},
		{name: "marked permanent", errs: []error{Permanent(transient)}, attempts: 3, tries: 1, wantErr: transient},
		{name: "single attempt", errs: []error{transient}, attempts: 1, tries: 1, wantErr: transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, notified := 0, 0
			tries, err := Retry(context.Background(), fast, tt.attempts, func() error {
				calls++
				if calls <= len(tt.errs) {
					return tt.errs[calls-1]
				}
				return nil
			}, func(error, int, time.Duration) { notified++ })

			assert.Equal(t, tt.tries, tries)
			assert.Equal(t, tt.tries, calls)
			assert.Equal(t, tt.tries-1, notified)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFloodAwareUsesServerWait(t *testing.T) {
	f := &floodAware{BackOff: Backoff{Step: time.Millisecond}.policy()}

	f.last = tele.FloodError{RetryAfter: 7}
	assert.Equal(t, 7*time.Second, f.NextBackOff())

	f.last = errors.New("timeout")
	assert.Equal(t, 2*time.Millisecond, f.NextBackOff())
}

func TestRetryStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	transient := &net.OpError{Op: "dial", Err: errors.New("refused")}

	tries, err := Retry(ctx, Backoff{Step: time.Hour}, 5, func() error { return transient }, nil)
	assert.Equal(t, 1, tries)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, transient)
}

func TestBackoffPolicyDoubles(t *testing.T) {
	p := Backoff{Step: time.Second, Max: 3 * time.Second}.policy()
	assert.Equal(t, time.Second, p.NextBackOff())
	assert.Equal(t, 2*time.Second, p.NextBackOff())
	assert.Equal(t, 3*time.Second, p.NextBackOff())
	assert.Equal(t, 3*time.Second, p.NextBackOff())
}

func TestRedact(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:AA-b_c/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, Redact(err))
	assert.Equal(t, "", Redact(nil))
}
