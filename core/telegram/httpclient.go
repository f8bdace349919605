package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/netutil"
)

// Outbound HTTP timeouts shared by the Bot API and the store API clients.
const (
	dialTimeout     = 5 * time.Second
	keepAlive       = 30 * time.Second
	tlsTimeout      = 5 * time.Second
	idleTimeout     = 30 * time.Second
	headerTimeout   = 5 * time.Second
	minClientBudget = 30 * time.Second

	dialRetries   = 3
	dialRetryStep = 2 * time.Second
)

// BuildHTTPClient returns the Bot API client. longPoll is the getUpdates
// hold time; the header and overall deadlines start counting after it.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	tr := BuildTransport()
	tr.ResponseHeaderTimeout = longPoll + headerTimeout
	return &http.Client{
		Timeout:   max(minClientBudget, longPoll+2*headerTimeout),
		Transport: &dialRetry{next: tr, retries: dialRetries, step: dialRetryStep},
	}
}

// BuildTransport returns a pooled transport without retries.
func BuildTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
	}
}

// dialRetry repeats a request only when the connection was never
// established, so the server cannot have seen it.
type dialRetry struct {
	next    http.RoundTripper
	retries int
	step    time.Duration
}

func (d *dialRetry) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := d.next.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= d.retries && netutil.IsDialFailure(err); attempt++ {
		retry, rerr := rewind(req)
		if rerr != nil || retry == nil {
			return nil, err
		}
		wait := d.step * time.Duration(attempt)
		logger.LogEvent(req.Context(), logger.TG, slog.LevelDebug, "http.dial_retry",
			slog.String("host", req.URL.Host),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
		)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
		resp, err = d.next.RoundTrip(retry)
	}
	return resp, err
}

// rewind clones req with a fresh body. It returns nil when the body cannot
// be replayed.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
