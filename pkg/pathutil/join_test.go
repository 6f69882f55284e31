package pathutil_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jetpack/pkg/pathutil"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parts []any
		want  string
	}{
		{name: "no parts", parts: nil, want: ""},
		{name: "single part kept as-is", parts: []any{"/var/www/"}, want: "/var/www/"},
		{name: "boundary separators collapsed", parts: []any{"a", "b/", "/c"}, want: "a/b/c"},
		{name: "leading separator of first part kept", parts: []any{"/a/", "/b"}, want: "/a/b"},
		{name: "trailing separator of last part kept", parts: []any{"a", "b/"}, want: "a/b/"},
		{name: "repeated separators trimmed", parts: []any{"a///", "///b"}, want: "a/b"},
		{name: "root first part", parts: []any{"/", "etc", "hosts"}, want: "/etc/hosts"},
		{name: "empty interior parts skipped", parts: []any{"a", "", "/", "c"}, want: "a/c"},
		{name: "leading empty part skipped", parts: []any{"", "a"}, want: "a"},
		{name: "nested string slice", parts: []any{"/var/", []string{"/log", "app/"}}, want: "/var/log/app/"},
		{name: "deeply nested", parts: []any{"a", []any{"b", []any{"c", []string{"d"}}}}, want: "a/b/c/d"},
		{name: "non-string values formatted", parts: []any{"releases", 42, true}, want: "releases/42/true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, filepath.FromSlash(tt.want), pathutil.Join(tt.parts...))
		})
	}
}

func TestJoin_NestedMatchesPreJoined(t *testing.T) {
	t.Parallel()

	cases := [][2][]any{
		{{"a", []string{"b", "c"}}, {"a", "b/c"}},
		{{"/root", []any{"x/", "/y"}, "z/"}, {"/root", "x/y", "z/"}},
		{{[]string{"a", "b"}, "c"}, {"a/b", "c"}},
	}

	for _, c := range cases {
		require.Equal(t, pathutil.Join(c[1]...), pathutil.Join(c[0]...))
	}
}
