package database

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// migration is one embedded up file.
type migration struct {
	version uint64
	file    string
}

// embeddedMigrations lists the up files of fsys/dir ordered by version.
func embeddedMigrations(fsys fs.FS, dir string) []migration {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var out []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		head, _, _ := strings.Cut(name, "_")
		v, _ := strconv.ParseUint(head, 10, 64)
		out = append(out, migration{version: v, file: name})
	}
	slices.SortFunc(out, func(a, b migration) int {
		return cmp.Or(cmp.Compare(a.version, b.version), strings.Compare(a.file, b.file))
	})
	return out
}

// appliedBetween returns the files with from < version <= to.
func appliedBetween(all []migration, from, to uint64) []string {
	var files []string
	for _, m := range all {
		if m.version > from && m.version <= to {
			files = append(files, m.file)
		}
	}
	return files
}

// RunMigrations waits for the session database and applies every embedded
// up migration. An up-to-date schema is not an error.
func RunMigrations(ctx context.Context, cfg config.PostgresConfig) error {
	if err := WaitForPostgres(ctx, DSN(cfg), readyTimeout); err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"),
			slog.String("reason", "not_ready"),
			slog.String("err", err.Error()),
		)
		return err
	}

	all := embeddedMigrations(migrationsFS, migrationsDir)
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.file)
	}
	preview, truncated := logger.SummarizeStrings(names, 6)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "migrate.resolve",
		slog.Int("count", len(all)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	src, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, URL(cfg))
	if err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"),
			slog.String("reason", "init"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("initialize migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"),
			slog.Uint64("from_ver", uint64(from)),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "db.migrate",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", len(appliedBetween(all, uint64(from), uint64(to)))),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
