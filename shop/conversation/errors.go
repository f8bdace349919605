package conversation

import "errors"

var (
	// ErrConfiguration is an internal invariant violation: a state without a handler.
	ErrConfiguration = errors.New("conversation: configuration error")
	// ErrSessionExpired marks events from users without a stored session.
	ErrSessionExpired = errors.New("conversation: session expired")
	// ErrUnexpectedInput marks a payload the current state does not accept.
	ErrUnexpectedInput = errors.New("conversation: unexpected input")
)
