package config

import "strconv"

// Default values applied by Settings when keys are absent.
const (
	DefaultIncludesDir  = "includes"
	DefaultAddress      = ":8080"
	DefaultSessionStore = "memory"
)

// Settings is the typed view of the keys the framework reads.
// Application-specific keys stay reachable through Get and DecodeKey.
type Settings struct {
	ErrorRoutes map[string]string `mapstructure:"error_routes"`
	Sentry      Sentry            `mapstructure:"sentry"`
	Directories Directories       `mapstructure:"directories"`
	Session     Session           `mapstructure:"session"`
	Twig        Twig              `mapstructure:"twig"`
	Timezone    string            `mapstructure:"timezone"`
	Address     string            `mapstructure:"address"`
	Debug       bool              `mapstructure:"debug"`
	Health      bool              `mapstructure:"health"`
}

// Directories lists application directories, relative to the app root.
type Directories struct {
	Includes string `mapstructure:"includes"`
	Public   string `mapstructure:"public"`
}

// Twig configures the template engine. The block keeps its historical name.
type Twig struct {
	Autoescape      any    `mapstructure:"autoescape"`
	Cache           any    `mapstructure:"cache"`
	Dir             string `mapstructure:"dir"`
	Charset         string `mapstructure:"charset"`
	StrictVariables bool   `mapstructure:"strict_variables"`
	AutoReload      bool   `mapstructure:"auto_reload"`
}

// AutoescapeEnabled reports whether output escaping is on.
// Only an explicit false (or "false") disables it.
func (t Twig) AutoescapeEnabled() bool {
	return !isFalse(t.Autoescape)
}

// CacheEnabled reports whether parsed templates are kept between renders.
// Only an explicit false (or "false") disables it.
func (t Twig) CacheEnabled() bool {
	return !isFalse(t.Cache)
}

// Session configures the session store and cookie.
type Session struct {
	Store      string `mapstructure:"store"`
	RedisURL   string `mapstructure:"redis_url"`
	CookieName string `mapstructure:"cookie_name"`
	Domain     string `mapstructure:"domain"`
	MaxAge     int    `mapstructure:"max_age"`
	Secure     bool   `mapstructure:"secure"`
}

// Sentry configures error reporting.
type Sentry struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Settings decodes the framework keys and fills defaults.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.Directories.Includes == "" {
		s.Directories.Includes = DefaultIncludesDir
	}
	if s.Address == "" {
		s.Address = DefaultAddress
	}
	if s.Session.Store == "" {
		s.Session.Store = DefaultSessionStore
	}

	return s, nil
}

// ErrorRoute returns the path configured for an HTTP status code.
func (s Settings) ErrorRoute(code int) (string, bool) {
	p, ok := s.ErrorRoutes[strconv.Itoa(code)]
	return p, ok && p != ""
}

func isFalse(v any) bool {
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && !b
	}
	return false
}
