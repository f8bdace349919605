package bootstrap

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/state"
)

func noLogger(*coreconfig.Config) error { return nil }

func sessionConfig(backend string) *coreconfig.Config {
	return &coreconfig.Config{Session: coreconfig.SessionConfig{
		Backend:     backend,
		OpTimeoutMS: 500,
		Postgres:    coreconfig.PostgresConfig{Host: "db", Port: "5432", Name: "sessions"},
	}}
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestRunLoggerFailure(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     sessionConfig(coreconfig.BackendMemory),
		LoggerInit: func(*coreconfig.Config) error { return errors.New("no log dir") },
	})
	assert.ErrorContains(t, err, "logger init failed")
}

func TestRunMemoryBackend(t *testing.T) {
	res, err := Run(context.Background(), Options{Config: sessionConfig(coreconfig.BackendMemory), LoggerInit: noLogger})
	require.NoError(t, err)
	assert.Equal(t, coreconfig.BackendMemory, res.Backend)

	ctx := context.Background()
	_, err = res.Store.Get(ctx, 42)
	assert.ErrorIs(t, err, state.ErrNotFound)
	require.NoError(t, res.Store.Set(ctx, 42, "BROWSING"))
	label, err := res.Store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, state.Label("BROWSING"), label)
	assert.NoError(t, res.Close())
}

func TestRunRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sessionConfig(coreconfig.BackendRedis)
	cfg.Session.RedisURL = "redis://" + mr.Addr()

	res, err := Run(context.Background(), Options{Config: cfg, LoggerInit: noLogger})
	require.NoError(t, err)
	require.NoError(t, res.Store.Set(context.Background(), 42, "VIEWING_CART"))
	got, err := mr.Get("42")
	require.NoError(t, err)
	assert.Equal(t, "VIEWING_CART", got)
	assert.NoError(t, res.Close())
}

func TestRunRedisUnreachable(t *testing.T) {
	cfg := sessionConfig(coreconfig.BackendRedis)
	cfg.Session.RedisURL = "redis://127.0.0.1:1"
	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		OpenRedis: func(context.Context, string, string) (*state.RedisStore, error) {
			return nil, errors.New("connection refused")
		},
	})
	assert.ErrorContains(t, err, "redis session store")
}

func TestRunPostgresBackend(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")

	var migrated coreconfig.PostgresConfig
	res, err := Run(context.Background(), Options{
		Config:     sessionConfig(coreconfig.BackendPostgres),
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.PostgresConfig) (*sqlx.DB, error) {
			return db, nil
		},
		Migrate: func(_ context.Context, cfg coreconfig.PostgresConfig) error {
			migrated = cfg
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "sessions", migrated.Name)

	mock.ExpectClose()
	require.NoError(t, res.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunPostgresMigrationFailureClosesPool(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	_, err = Run(context.Background(), Options{
		Config:     sessionConfig(coreconfig.BackendPostgres),
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.PostgresConfig) (*sqlx.DB, error) {
			return sqlx.NewDb(raw, "postgres"), nil
		},
		Migrate: func(context.Context, coreconfig.PostgresConfig) error {
			return errors.New("dirty database version 1")
		},
	})
	assert.ErrorContains(t, err, "migrations failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestResultCloseAggregatesErrors(t *testing.T) {
	var order []string
	res := &Result{closers: []io.Closer{
		closerFunc(func() error { order = append(order, "first"); return errors.New("first failed") }),
		closerFunc(func() error { order = append(order, "second"); return nil }),
		closerFunc(func() error { order = append(order, "third"); return errors.New("third failed") }),
	}}

	err := res.Close()
	require.Error(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Contains(t, err.Error(), "first failed")
	assert.Contains(t, err.Error(), "third failed")
	assert.NoError(t, res.Close(), "second close is a no-op")

	var nilResult *Result
	assert.NoError(t, nilResult.Close())
}
