// Package netutil classifies failed outbound calls to the Bot API and the store API.
package netutil

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Kind is the err_code logged for a failed outbound call.
type Kind string

const (
	KindCancelled Kind = "cancelled"
	KindTimeout   Kind = "timeout"
	KindDNS       Kind = "dns"
	KindDial      Kind = "dial"
	KindTLS       Kind = "tls"
	KindFlood     Kind = "flood"
	KindServer    Kind = "http_5xx"
	KindClient    Kind = "http_4xx"
	KindUnknown   Kind = "unknown"
)

// Classify maps err to a Kind. A nil error has an empty kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return KindFlood
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return statusKind(apiErr.Code)
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return KindClient
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if IsDialFailure(err) {
		return KindDial
	}

	var (
		alertErr   tls.AlertError
		certErr    *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostnameEr x509.HostnameError
	)
	if errors.As(err, &alertErr) || errors.As(err, &certErr) || errors.As(err, &unknownCA) || errors.As(err, &hostnameEr) {
		return KindTLS
	}
	return KindUnknown
}

func statusKind(code int) Kind {
	switch {
	case code == 429:
		return KindFlood
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindClient
	}
	return KindUnknown
}

// ShouldRetry reports whether repeating the call may succeed.
// Context cancellation and 4xx answers are never retried.
func ShouldRetry(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDNS, KindDial, KindFlood, KindServer:
		return true
	}
	return false
}

// RetryAfter returns the wait Telegram requested with a flood-control answer, or zero.
func RetryAfter(err error) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return 0
}

// IsDialFailure reports whether err happened before the request reached the server.
func IsDialFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
