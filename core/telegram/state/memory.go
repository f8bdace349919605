package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errMemoryClosed = errors.New("state: memory store closed")

// memoryStore keeps sessions in process memory. They are lost on restart.
type memoryStore struct {
	sessions sync.Map // int64 -> Label
	closed   atomic.Bool
}

// NewMemoryStore returns an in-process Store for tests and local runs.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) check(ctx context.Context) error {
	if m.closed.Load() {
		return errMemoryClosed
	}
	return ctx.Err()
}

func (m *memoryStore) Get(ctx context.Context, userID int64) (Label, error) {
	if err := m.check(ctx); err != nil {
		return "", err
	}
	v, ok := m.sessions.Load(userID)
	if !ok {
		return "", ErrNotFound
	}
	return v.(Label), nil
}

func (m *memoryStore) Set(ctx context.Context, userID int64, label Label) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.sessions.Store(userID, label)
	return nil
}

// Close makes later calls fail. Stored sessions are dropped.
func (m *memoryStore) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		m.sessions.Clear()
	}
	return nil
}
