// Package redis opens go-redis clients from connection URLs.
//
// Open validates the URL scheme, applies pool settings and pings the server,
// retrying with a linearly growing wait. The returned client backs the Redis
// session store and is closed through [Shutdown] on application exit:
//
//	client, err := redis.Open(ctx, "redis://localhost:6379/0", redis.WithRetry(5, time.Second))
//	if err != nil {
//		return err
//	}
//	store := session.NewRedisStore(client)
//
// [Healthcheck] returns a readiness check that pings the server.
package redis
