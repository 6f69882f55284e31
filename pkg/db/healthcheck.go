package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck pings every pool. It has the shape of a health.CheckFunc.
// Having no pools is a failure.
func Healthcheck(pools ...*pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(pools) == 0 {
			return ErrPing
		}
		for i, p := range pools {
			if p == nil {
				return fmt.Errorf("%w: pool %d is nil", ErrPing, i)
			}
			if err := p.Ping(ctx); err != nil {
				return errors.Join(ErrPing, err)
			}
		}
		return nil
	}
}

// Shutdown closes every pool. Register it with App.OnClose.
func Shutdown(pools ...*pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		for _, p := range pools {
			if p != nil {
				p.Close()
			}
		}
		return nil
	}
}
