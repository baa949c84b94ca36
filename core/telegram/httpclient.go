package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/12farit21/nosql-telegram-bot/core/telegram/netutil"
)

// Transport timeouts for Bot API calls. Long polling adds its own timeout on
// top of clientTimeout through the poller.
const (
	dialTimeout     = 5 * time.Second
	tlsTimeout      = 5 * time.Second
	headerTimeout   = 5 * time.Second
	idleConnTimeout = 30 * time.Second
	clientTimeout   = 30 * time.Second
	transportTries  = 3
)

var errNoReplay = errors.New("telegram: request body cannot be replayed")

var transportBackoff = netutil.Backoff{Step: 2 * time.Second, Max: 6 * time.Second, Jitter: 0.2}

// BuildHTTPClient returns the client handed to telebot. Dial and timeout
// failures are retried when the request body can be replayed.
func BuildHTTPClient() *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   clientTimeout,
		Transport: &retryTransport{base: base, tries: transportTries, backoff: transportBackoff},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	tries   int
	backoff netutil.Backoff
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	next := req
	_, err := netutil.Retry(req.Context(), t.backoff, t.tries, func() error {
		var err error
		if resp, err = t.base.RoundTrip(next); err == nil {
			return nil
		}
		r, rerr := rewind(req)
		if rerr != nil {
			return netutil.Permanent(err)
		}
		next = r
		return err
	}, nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// rewind clones req with a fresh body. Requests whose body cannot be
// replayed are not retried.
func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, errNoReplay
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}
