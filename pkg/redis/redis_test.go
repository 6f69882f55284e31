package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, "")
		require.Nil(t, client)
		require.ErrorIs(t, err, ErrNoURL)
	})

	testCases := []struct {
		name string
		url  string
	}{
		{name: "http scheme", url: "http://localhost:6379"},
		{name: "no scheme", url: "localhost:6379"},
		{name: "postgres scheme", url: "postgres://localhost:6379"},
		{name: "invalid port", url: "redis://localhost:notaport"},
		{name: "invalid database", url: "redis://localhost:6379/notanumber"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client, err := Open(ctx, tc.url)
			require.Nil(t, client)
			require.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("connects and passes healthcheck", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := Open(ctx, "redis://"+mr.Addr()+"/0", WithPoolSize(2), WithMinIdleConns(0))
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, Healthcheck(client)(ctx))
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		client, err := Open(ctx, "redis://"+addr, WithRetry(2, 10*time.Millisecond), WithTimeout(100*time.Millisecond), WithMinIdleConns(0))
		require.Nil(t, client)
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()

		client, err := Open(ctx, "redis://"+addr, WithRetry(3, 10*time.Second), WithTimeout(50*time.Millisecond), WithMinIdleConns(0))
		require.Nil(t, client)
		require.ErrorIs(t, err, ErrUnavailable)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("nil client", func(t *testing.T) {
		t.Parallel()

		require.ErrorIs(t, Healthcheck(nil)(ctx), ErrPing)
	})

	t.Run("server gone", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := Open(ctx, "redis://"+mr.Addr(), WithTimeout(100*time.Millisecond), WithMinIdleConns(0))
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		mr.Close()
		require.ErrorIs(t, Healthcheck(client)(ctx), ErrPing)
	})
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	t.Run("calls Close", func(t *testing.T) {
		t.Parallel()

		c := &mockCloser{}
		require.NoError(t, Shutdown(c)(context.Background()))
		require.True(t, c.closed)
	})

	t.Run("propagates Close error", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("close error")
		c := &mockCloser{err: expected}
		require.Equal(t, expected, Shutdown(c)(context.Background()))
	})
}

func TestWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	require.Equal(t, context.Canceled, wait(ctx, 10*time.Second))
	require.Less(t, time.Since(start), time.Second)
}

type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.err
}
