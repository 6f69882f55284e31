package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dmitrymomot/jetpack/pkg/config"
	"github.com/dmitrymomot/jetpack/pkg/db"
	"github.com/dmitrymomot/jetpack/pkg/loader"
	"github.com/dmitrymomot/jetpack/pkg/logger"
	"github.com/dmitrymomot/jetpack/pkg/orm"
	"github.com/dmitrymomot/jetpack/pkg/redis"
	"github.com/dmitrymomot/jetpack/pkg/session"
	"github.com/dmitrymomot/jetpack/pkg/view"
)

// SubmodulesDir is searched before the includes directory itself.
const SubmodulesDir = "submodules"

const sentryFlushTimeout = 2 * time.Second

type step struct {
	name string
	fn   func(context.Context) error
}

// bootstrap runs the configuration steps in their fixed order.
// The first failing step stops the sequence.
func (a *App) bootstrap(ctx context.Context) error {
	steps := []step{
		{"before hooks", a.hooks(a.beforeHooks)},
		{"config", a.loadConfig},
		{"directories", a.resolveDirs},
		{"timezone", a.setTimezone},
		{"errors", a.configureErrors},
		{"loader", a.registerLoader},
		{"database", a.configureDatabase},
		{"views", a.configureViews},
		{"sessions", a.configureSessions},
		{"after hooks", a.hooks(a.afterHooks)},
	}

	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("bootstrap %s: %w", s.name, err)
		}
		a.logger.DebugContext(ctx, "bootstrap step done", slog.String("step", s.name))
	}
	return nil
}

func (a *App) hooks(hooks []Hook) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, h := range hooks {
			if err := h(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}
}

func (a *App) loadConfig(_ context.Context) error {
	if a.root == "" {
		root, err := executableDir()
		if err != nil {
			return err
		}
		a.root = root
	}

	root, err := filepath.Abs(a.root)
	if err != nil {
		return err
	}
	a.root = root

	paths := make([]string, len(a.configFiles))
	for i, name := range a.configFiles {
		paths[i] = filepath.Join(a.root, name)
	}

	if _, err := os.Stat(paths[0]); err != nil {
		return errors.Join(ErrConfigMissing, err)
	}

	var opts []config.Option
	if a.envPrefix != "" {
		opts = append(opts, config.WithEnvPrefix(a.envPrefix))
	}

	cfg, err := config.Load(paths, opts...)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	a.config = cfg
	a.settings = settings
	return nil
}

func (a *App) resolveDirs(_ context.Context) error {
	a.dirs = Dirs{
		Root:     a.root,
		Includes: a.abs(a.settings.Directories.Includes),
	}
	if a.settings.Directories.Public != "" {
		a.dirs.Public = a.abs(a.settings.Directories.Public)
	}
	return nil
}

func (a *App) setTimezone(_ context.Context) error {
	if a.settings.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(a.settings.Timezone)
	if err != nil {
		return errors.Join(ErrInvalidTimezone, fmt.Errorf("%q: %w", a.settings.Timezone, err))
	}
	a.location = loc
	time.Local = loc
	return nil
}

// configureErrors builds the logger from the debug and sentry settings
// unless WithLogger supplied one.
func (a *App) configureErrors(_ context.Context) error {
	if a.customLogger != nil {
		return nil
	}

	opts := []logger.Option{
		logger.WithDebug(a.settings.Debug),
		logger.WithExtractors(a.logExtractors...),
	}
	if dsn := a.settings.Sentry.DSN; dsn != "" {
		opts = append(opts, logger.WithSentry(logger.SentryConfig{
			DSN:         dsn,
			Environment: a.settings.Sentry.Environment,
		}))
		a.OnClose(logger.FlushSentry(sentryFlushTimeout))
	}

	a.logger = logger.New(opts...)
	return nil
}

func (a *App) registerLoader(_ context.Context) error {
	roots := []string{a.dirs.Includes}
	submodules := filepath.Join(a.dirs.Includes, SubmodulesDir)
	if info, err := os.Stat(submodules); err == nil && info.IsDir() {
		roots = append([]string{submodules}, roots...)
	}
	a.loader = loader.New(roots)
	return nil
}

func (a *App) configureDatabase(ctx context.Context) error {
	v := a.config.Get("db")
	if !v.Exists() {
		return nil
	}

	write, read := db.ConnectionStrings(v)

	var poolCfg db.Config
	if a.config.Has("db_pool") {
		if err := a.config.DecodeKey("db_pool", &poolCfg); err != nil {
			return err
		}
	}

	writers, readers, err := db.ConnectAll(ctx, write, read, poolCfg)
	if err != nil {
		return err
	}
	pools := slices.Concat(writers, readers)

	a.db = orm.Open(writers, readers)
	a.dbConfig = poolCfg
	a.writers = writers
	a.OnClose(db.Shutdown(pools...))
	a.addReadinessCheck("db", db.Healthcheck(pools...))

	a.logger.InfoContext(ctx, "database connected",
		slog.Int("writers", len(writers)),
		slog.Int("readers", len(readers)),
	)
	return nil
}

func (a *App) configureViews(_ context.Context) error {
	tw := a.settings.Twig
	if tw.Dir == "" {
		return nil
	}

	views, err := view.New(a.abs(tw.Dir),
		view.WithDebug(a.settings.Debug),
		view.WithCharset(tw.Charset),
		view.WithStrictVariables(tw.StrictVariables),
		view.WithAutoReload(tw.AutoReload),
		view.WithAutoescape(tw.AutoescapeEnabled()),
		view.WithCache(tw.CacheEnabled()),
		view.WithFuncs(a.viewFuncs),
	)
	if err != nil {
		return err
	}
	a.views = views
	return nil
}

func (a *App) configureSessions(ctx context.Context) error {
	if a.sessionsDisabled {
		return nil
	}

	cfg := a.settings.Session
	store := a.sessionStore
	if store == nil {
		var err error
		if store, err = a.openSessionStore(ctx, cfg); err != nil {
			return err
		}
	}

	opts := []SessionOption{
		WithSessionCookieName(cfg.CookieName),
		WithSessionDomain(cfg.Domain),
		WithSessionMaxAge(cfg.MaxAge),
		WithSessionSecure(cfg.Secure),
	}
	a.sessions = NewSessionManager(store, append(opts, a.sessionOptions...)...)
	a.sessions.SetLogger(a.logger)
	return nil
}

func (a *App) openSessionStore(ctx context.Context, cfg config.Session) (session.Store, error) {
	switch cfg.Store {
	case "memory":
		store, err := session.NewMemoryStore()
		if err != nil {
			return nil, err
		}
		a.OnClose(store.Close)
		return store, nil

	case "redis":
		client, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.OnClose(redis.Shutdown(client))
		a.addReadinessCheck("redis", redis.Healthcheck(client))
		return session.NewRedisStore(client), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSessionStore, cfg.Store)
}

// abs resolves p against the app root.
func (a *App) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(a.root, p)
}

// executableDir returns the directory of the running binary with symlinks resolved.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
