package internal_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jetpack/internal"
)

// newApp writes cfg as the app's config file in a temporary root and
// configures the application. Resources are released on cleanup.
func newApp(t *testing.T, cfg string, opts ...internal.Option) *internal.App {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, internal.ConfigFile, cfg)

	app := internal.New(append([]internal.Option{internal.WithRoot(dir)}, opts...)...)
	require.NoError(t, app.Configure(context.Background()))
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	return app
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}
