package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationsDir is searched when the root of a migrations filesystem holds
// no .sql files, so an embed of "migrations/*.sql" works unchanged.
const MigrationsDir = "migrations"

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migrate applies pending goose migrations from fsys through pool.
// Applied versions are recorded in table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, table string, log *slog.Logger) error {
	dir, err := migrationsRoot(fsys)
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}

	// The *sql.DB shares the pool and must not be closed.
	sqlDB := stdlib.OpenDBFromPool(pool)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log})
	goose.SetTableName(table)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}

func migrationsRoot(fsys fs.FS) (string, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		return ".", nil
	}
	if info, err := fs.Stat(fsys, MigrationsDir); err == nil && info.IsDir() {
		return MigrationsDir, nil
	}
	return ".", nil
}

// gooseLogger routes goose output to slog.
type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...), slog.String("component", "migrate"))
}

// Fatalf only logs: goose also returns the error, and exiting here would
// skip the close hooks.
func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...), slog.String("component", "migrate"))
}
