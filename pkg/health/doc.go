// Package health serves liveness and readiness checks.
//
// [LivenessHandler] always answers OK. [ReadinessHandler] runs named [Checks]
// concurrently under a shared timeout and answers 503 when any fails. Both
// respond with JSON when the request asks for it through the Accept header or
// ?format=json, and with plain text otherwise.
//
// The application registers a "db" check per connection pool and a "redis"
// check when sessions live in Redis. [Run] executes the same checks outside
// HTTP, for the health CLI command.
package health
