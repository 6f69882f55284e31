package config

import "strings"

// Option configures a Config.
type Option func(*Config)

// WithEnvPrefix enables environment overrides.
// The variable for "session.redis_url" with prefix "APP" is APP_SESSION_REDIS_URL.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_"))
	}
}

// WithLookupEnv replaces os.LookupEnv. Used in tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(c *Config) {
		if fn != nil {
			c.lookupEnv = fn
		}
	}
}
