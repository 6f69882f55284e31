package redis

import (
	"context"
	"errors"
	"io"

	"github.com/redis/go-redis/v9"
)

// Healthcheck pings the server. It has the shape of a health.CheckFunc.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrPing
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrPing, err)
		}
		return nil
	}
}

// Shutdown closes client. Register it with App.OnClose.
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		if client == nil {
			return nil
		}
		return client.Close()
	}
}
