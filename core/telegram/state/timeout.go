package state

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
)

type timedStore struct {
	inner   Store
	timeout time.Duration
	backend string
}

// WithTimeout bounds every Get and Set of inner by timeout and logs failures
// under the session component.
func WithTimeout(inner Store, timeout time.Duration, backend string) Store {
	if timeout <= 0 {
		return inner
	}
	return &timedStore{inner: inner, timeout: timeout, backend: backend}
}

func (s *timedStore) Get(ctx context.Context, userID int64) (Label, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	label, err := s.inner.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logFailure(ctx, "session.get", userID, start, err)
	}
	return label, err
}

func (s *timedStore) Set(ctx context.Context, userID int64, label Label) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	err := s.inner.Set(ctx, userID, label)
	if err != nil {
		s.logFailure(ctx, "session.set", userID, start, err)
	}
	return err
}

func (s *timedStore) Close() error {
	return s.inner.Close()
}

func (s *timedStore) logFailure(ctx context.Context, event string, userID int64, start time.Time, err error) {
	logger.LogEvent(ctx, logger.Session, slog.LevelWarn, event,
		slog.String("status", "fail"),
		slog.String("backend", s.backend),
		slog.Int64("user_id", userID),
		slog.Duration("duration", logger.Took(start)),
		slog.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
		slog.String("err", err.Error()),
	)
}
