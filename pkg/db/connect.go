package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Connect establishes a PostgreSQL connection pool with retry logic.
// Backoff grows linearly with each attempt so restarting services don't stampede.
func Connect(ctx context.Context, dsn string, cfg Config) (*pgxpool.Pool, error) {
	if err := checkScheme(dsn); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()

	connConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrInvalidDSN, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MinConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	var lastErr error
	for i := range max(cfg.RetryAttempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			// Ping catches authentication and permission issues.
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnect, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrConnect, lastErr)
}

// ConnectAll opens every write and read pool concurrently.
// If any connection fails, pools opened so far are closed.
func ConnectAll(ctx context.Context, write, read []string, cfg Config) (writers, readers []*pgxpool.Pool, err error) {
	if len(write) == 0 {
		return nil, nil, ErrNoWriter
	}

	writers = make([]*pgxpool.Pool, len(write))
	readers = make([]*pgxpool.Pool, len(read))

	g, gctx := errgroup.WithContext(ctx)
	open := func(dst []*pgxpool.Pool, i int, dsn string) {
		g.Go(func() error {
			pool, err := Connect(gctx, dsn, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", redact(dsn), err)
			}
			dst[i] = pool
			return nil
		})
	}
	for i, dsn := range write {
		open(writers, i, dsn)
	}
	for i, dsn := range read {
		open(readers, i, dsn)
	}

	if err := g.Wait(); err != nil {
		for _, p := range append(writers, readers...) {
			if p != nil {
				p.Close()
			}
		}
		return nil, nil, err
	}

	return writers, readers, nil
}

func checkScheme(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return errors.Join(ErrInvalidDSN, err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return nil
	}
	return errors.Join(ErrUnsupportedScheme, fmt.Errorf("%q", u.Scheme))
}

// redact hides the password of a connection string for logs and errors.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<invalid dsn>"
	}
	return u.Redacted()
}
