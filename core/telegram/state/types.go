package state

import (
	"context"
	"errors"
	"strconv"
)

// Label is the persisted conversation position of a chat.
type Label string

// ErrNotFound reports that no session was ever stored for the chat.
var ErrNotFound = errors.New("state: session not found")

// Store is a durable chat id -> label mapping.
type Store interface {
	// Get returns the stored label or ErrNotFound.
	Get(ctx context.Context, userID int64) (Label, error)
	// Set overwrites the stored label.
	Set(ctx context.Context, userID int64, label Label) error
	Close() error
}

func sessionKey(prefix string, userID int64) string {
	return prefix + strconv.FormatInt(userID, 10)
}
