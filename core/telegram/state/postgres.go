package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

const (
	selectSessionSQL = `SELECT state FROM bot_sessions WHERE user_id = $1`
	upsertSessionSQL = `INSERT INTO bot_sessions (user_id, state, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps sessions in the bot_sessions table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open pool. The store owns the pool and closes it on Close.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID int64) (Label, error) {
	var label string
	err := s.db.GetContext(ctx, &label, selectSessionSQL, strconv.FormatInt(userID, 10))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("state: select session: %w", err)
	}
	return Label(label), nil
}

func (s *PostgresStore) Set(ctx context.Context, userID int64, label Label) error {
	if _, err := s.db.ExecContext(ctx, upsertSessionSQL, strconv.FormatInt(userID, 10), string(label)); err != nil {
		return fmt.Errorf("state: upsert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
