package password_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jetpack/pkg/password"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		h, err := password.New()
		require.NoError(t, err)
		require.Equal(t, password.SHA256, h.Algorithm())
		require.Equal(t, "$", h.Separator())
		// 2*64 hex chars + len("sha256") + 2*len("$")
		require.Equal(t, 136, h.MinLength())
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()

		_, err := password.New(password.WithAlgorithm("rot13"))
		require.ErrorIs(t, err, password.ErrUnknownAlgorithm)
	})

	t.Run("empty separator", func(t *testing.T) {
		t.Parallel()

		_, err := password.New(password.WithSeparator(""))
		require.ErrorIs(t, err, password.ErrEmptySeparator)
	})

	t.Run("alphanumeric separator", func(t *testing.T) {
		t.Parallel()

		for _, sep := range []string{"a", "0", "F", "$x", "é"} {
			_, err := password.New(password.WithSeparator(sep))
			require.ErrorIs(t, err, password.ErrInvalidSeparator, sep)
		}
	})

	t.Run("symbol separators", func(t *testing.T) {
		t.Parallel()

		for _, sep := range []string{"$", "::", "|", "#!"} {
			h, err := password.New(password.WithSeparator(sep))
			require.NoError(t, err, sep)

			env, err := h.Hash("secret")
			require.NoError(t, err)
			ok, err := h.Check(env, "secret")
			require.NoError(t, err)
			require.True(t, ok, sep)
		}
	})

	t.Run("algorithm containing separator", func(t *testing.T) {
		t.Parallel()

		_, err := password.New(password.WithAlgorithm(password.SHA3_256), password.WithSeparator("-"))
		require.Error(t, err)
	})

	t.Run("broken random source fails startup", func(t *testing.T) {
		t.Parallel()

		_, err := password.New(password.WithRandom(failingReader{}))
		require.ErrorIs(t, err, password.ErrNoRandomSource)
	})
}

func TestHasher_MinLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		algorithm string
		separator string
		want      int
	}{
		{algorithm: password.SHA256, separator: "$", want: 2*64 + 6 + 2},
		{algorithm: password.SHA1, separator: "$", want: 2*40 + 4 + 2},
		{algorithm: password.SHA512, separator: "::", want: 2*128 + 6 + 4},
		{algorithm: password.MD5, separator: "$", want: 2*32 + 3 + 2},
		{algorithm: password.BLAKE3, separator: "$", want: 2*64 + 6 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			t.Parallel()

			h, err := password.New(password.WithAlgorithm(tt.algorithm), password.WithSeparator(tt.separator))
			require.NoError(t, err)
			require.Equal(t, tt.want, h.MinLength())

			env, err := h.Hash("secret")
			require.NoError(t, err)
			require.Len(t, env, tt.want)
		})
	}
}

func TestHasher_HashAndCheck(t *testing.T) {
	t.Parallel()

	for _, alg := range password.Algorithms() {
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			h, err := password.New(password.WithAlgorithm(alg))
			require.NoError(t, err)

			env, err := h.Hash("correct-horse")
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(env, alg+"$"))

			ok, err := h.Check(env, "correct-horse")
			require.NoError(t, err)
			require.True(t, ok)

			ok, err = h.Check(env, "wrong")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestHasher_DistinctSalts(t *testing.T) {
	t.Parallel()

	h, err := password.New()
	require.NoError(t, err)

	a, err := h.Hash("correct-horse")
	require.NoError(t, err)
	b, err := h.Hash("correct-horse")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	for _, env := range []string{a, b} {
		ok, err := h.Check(env, "correct-horse")
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestHasher_DeterministicWithFixedEntropy(t *testing.T) {
	t.Parallel()

	entropy := bytes.Repeat([]byte{7}, 1+64*2)
	h1, err := password.New(password.WithRandom(bytes.NewReader(entropy)))
	require.NoError(t, err)
	h2, err := password.New(password.WithRandom(bytes.NewReader(entropy)))
	require.NoError(t, err)

	a, err := h1.Hash("pw")
	require.NoError(t, err)
	b, err := h2.Hash("pw")
	require.NoError(t, err)
	require.Equal(t, a, b)

	_, err = h1.Hash("pw")
	require.NoError(t, err)

	// Entropy is exhausted now.
	_, err = h1.Hash("pw")
	require.ErrorIs(t, err, password.ErrNoRandomSource)
}

func TestHasher_CheckUsesEnvelopeAlgorithm(t *testing.T) {
	t.Parallel()

	legacy, err := password.New(password.WithAlgorithm(password.SHA1))
	require.NoError(t, err)
	current, err := password.New()
	require.NoError(t, err)

	env, err := legacy.Hash("hunter2")
	require.NoError(t, err)

	ok, err := current.Check(env, "hunter2")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, current.NeedsRehash(env))
	require.False(t, legacy.NeedsRehash(env))
}

func TestHasher_CheckMalformed(t *testing.T) {
	t.Parallel()

	h, err := password.New()
	require.NoError(t, err)

	for _, env := range []string{"", "sha256", "sha256$abc", "sha256$$abc", "a$b$c$d"} {
		_, err := h.Check(env, "x")
		require.ErrorIs(t, err, password.ErrMalformedHash, env)
	}

	_, err = h.Check("whirlpool$salt$hash", "x")
	require.ErrorIs(t, err, password.ErrUnknownAlgorithm)
}
