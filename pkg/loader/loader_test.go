package loader_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jetpack/pkg/loader"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fsys, filepath.FromSlash(name), []byte(body), 0o644))
	}
	return fsys
}

func TestLoader_RelPath(t *testing.T) {
	t.Parallel()

	l := loader.New(nil, loader.WithExtension(".sql"))

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "plain name", in: "Users", want: "Users.sql", ok: true},
		{name: "namespace separators", in: `Reports\Monthly`, want: "Reports/Monthly.sql", ok: true},
		{name: "underscores in final segment", in: `Reports\Monthly_Totals`, want: "Reports/Monthly/Totals.sql", ok: true},
		{name: "underscores in namespace kept", in: `My_Reports\Totals`, want: "My_Reports/Totals.sql", ok: true},
		{name: "leading separator ignored", in: `\Reports\Monthly`, want: "Reports/Monthly.sql", ok: true},
		{name: "slash path is literal", in: "reports/monthly_totals", want: "reports/monthly_totals.sql", ok: true},
		{name: "slash path with extension", in: "reports/monthly.sql", want: "reports/monthly.sql", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "parent traversal", in: "../secrets", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := l.RelPath(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLoader_Resolve(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{
		"includes/submodules/Mail/Welcome.html": "from submodule",
		"includes/Mail/Welcome.html":            "from includes",
		"includes/Mail/Reset/Body.html":         "reset body",
		"includes/Mail/Dir.html/Index.html":     "index",
	})

	l := loader.New([]string{"includes/submodules", "includes"}, loader.WithFs(fsys))

	t.Run("first root wins", func(t *testing.T) {
		t.Parallel()

		p, ok := l.Resolve(`Mail\Welcome`)
		require.True(t, ok)
		require.Equal(t, filepath.FromSlash("includes/submodules/Mail/Welcome.html"), p)

		data, err := l.ReadFile(`Mail\Welcome`)
		require.NoError(t, err)
		require.Equal(t, "from submodule", string(data))
	})

	t.Run("falls through to later roots", func(t *testing.T) {
		t.Parallel()

		f, err := l.Open(`Mail\Reset_Body`)
		require.NoError(t, err)
		defer f.Close()

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "reset body", string(data))
	})

	t.Run("directories do not match", func(t *testing.T) {
		t.Parallel()

		_, ok := l.Resolve(`Mail\Dir`)
		require.False(t, ok)
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()

		_, err := l.ReadFile(`Mail\Missing`)
		require.ErrorIs(t, err, loader.ErrNotFound)
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()

		_, err := l.ReadFile("../etc/passwd")
		require.ErrorIs(t, err, loader.ErrInvalidName)
	})
}

func TestLoader_Namespace(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{
		"lib/Acme/Billing/Invoice.tpl": "invoice",
		"lib/Other/Thing.tpl":          "other",
	})

	l := loader.New([]string{"lib"},
		loader.WithFs(fsys),
		loader.WithNamespace(`Acme`),
		loader.WithExtension("tpl"),
	)

	_, ok := l.Resolve(`Acme\Billing\Invoice`)
	require.True(t, ok)

	_, ok = l.Resolve(`Other\Thing`)
	require.False(t, ok)

	_, ok = l.Resolve(`AcmeCorp\Thing`)
	require.False(t, ok)

	_, err := l.ReadFile(`Other\Thing`)
	require.ErrorIs(t, err, loader.ErrNotFound)

	t.Run("slash names", func(t *testing.T) {
		t.Parallel()

		_, ok := l.Resolve("Acme/Billing/Invoice")
		require.True(t, ok)

		_, ok = l.Resolve("Other/Thing")
		require.False(t, ok)

		_, ok = l.Resolve("AcmeCorp/Thing")
		require.False(t, ok)
	})
}
