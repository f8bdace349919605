package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	coredatabase "github.com/SergIvo/dvmn-fish-shop-bot/core/database"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/state"
)

// Options control the bootstrap pipeline. Nil hooks fall back to the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.PostgresConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.PostgresConfig) error
	OpenRedis  func(ctx context.Context, url, prefix string) (*state.RedisStore, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// Store is the session store for the configured backend, bounded by session.op_timeout_ms.
	Store   state.Store
	Backend string

	closers []io.Closer
}

// Close releases every resource opened by Run and reports all failures together.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var result *multierror.Error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.closers = nil
	return result.ErrorOrNil()
}

// Run initializes the logger and opens the session store.
// The postgres backend also applies the embedded migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	store, err := openStore(ctx, cfg.Session, opts)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Session.OpTimeoutMS) * time.Millisecond
	res := &Result{
		Store:   state.WithTimeout(store, timeout, cfg.Session.Backend),
		Backend: cfg.Session.Backend,
	}
	res.closers = append(res.closers, res.Store)

	logger.Session.Info("session store ready",
		slog.String("event", "store.open"),
		slog.String("backend", cfg.Session.Backend),
		slog.Duration("op_timeout", timeout),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return res, nil
}

func openStore(ctx context.Context, cfg coreconfig.SessionConfig, opts Options) (state.Store, error) {
	switch cfg.Backend {
	case coreconfig.BackendRedis:
		open := opts.OpenRedis
		if open == nil {
			open = state.OpenRedis
		}
		store, err := open(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: redis session store: %w", err)
		}
		return store, nil

	case coreconfig.BackendPostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		db, err := connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		if err := migrate(ctx, cfg.Postgres); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return state.NewPostgresStore(db), nil

	case coreconfig.BackendMemory:
		logger.Session.Warn("sessions are kept in memory and lost on restart",
			slog.String("event", "store.open"),
			slog.String("backend", cfg.Backend),
		)
		return state.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.Backend)
}
