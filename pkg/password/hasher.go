package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
	"unicode"
)

// Defaults for new hashers.
const (
	DefaultAlgorithm = SHA256
	DefaultSeparator = "$"

	// saltEntropy is the number of random bytes digested into a salt.
	saltEntropy = 64
)

// Option configures a Hasher.
type Option func(*Hasher)

// WithAlgorithm selects the algorithm used for new envelopes.
func WithAlgorithm(name string) Option {
	return func(h *Hasher) {
		if name != "" {
			h.algorithm = name
		}
	}
}

// WithSeparator sets the envelope field separator. It must not contain
// letters or digits.
func WithSeparator(sep string) Option {
	return func(h *Hasher) {
		h.separator = sep
	}
}

// WithRandom replaces crypto/rand as the salt entropy source.
func WithRandom(r io.Reader) Option {
	return func(h *Hasher) {
		if r != nil {
			h.random = r
		}
	}
}

// Hasher creates and verifies envelopes. It is safe for concurrent use
// when its random source is.
type Hasher struct {
	random    io.Reader
	newHash   func() hash.Hash
	algorithm string
	separator string
	hexLen    int
}

// New creates a Hasher. It fails when the algorithm is unknown or the random
// source cannot produce bytes; there is no fallback to a weaker source.
func New(opts ...Option) (*Hasher, error) {
	h := &Hasher{
		random:    rand.Reader,
		algorithm: DefaultAlgorithm,
		separator: DefaultSeparator,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.separator == "" {
		return nil, ErrEmptySeparator
	}
	// Salt and hash are hex, so a letter or digit in the separator could
	// occur inside them and break the split in Check.
	if strings.IndexFunc(h.separator, isAlnum) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeparator, h.separator)
	}
	if strings.Contains(h.algorithm, h.separator) {
		return nil, fmt.Errorf("password: algorithm %q contains separator %q", h.algorithm, h.separator)
	}

	fn, ok := lookup(h.algorithm)
	if !ok {
		return nil, errors.Join(ErrUnknownAlgorithm, fmt.Errorf("%q", h.algorithm))
	}
	h.newHash = fn
	h.hexLen = hex.EncodedLen(fn().Size())

	sample := make([]byte, 1)
	if _, err := io.ReadFull(h.random, sample); err != nil {
		return nil, errors.Join(ErrNoRandomSource, err)
	}

	return h, nil
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// Algorithm returns the algorithm name used for new envelopes.
func (h *Hasher) Algorithm() string { return h.algorithm }

// Separator returns the envelope field separator.
func (h *Hasher) Separator() string { return h.separator }

// MinLength is the number of characters an envelope occupies:
// two hex digests, the algorithm name and two separators.
func (h *Hasher) MinLength() int {
	return 2*h.hexLen + len(h.algorithm) + 2*len(h.separator)
}

// Salt returns a fresh hex-encoded salt.
func (h *Hasher) Salt() (string, error) {
	buf := make([]byte, saltEntropy)
	if _, err := io.ReadFull(h.random, buf); err != nil {
		return "", errors.Join(ErrNoRandomSource, err)
	}
	return digest(h.newHash, buf), nil
}

// Hash returns a new envelope for plain.
func (h *Hasher) Hash(plain string) (string, error) {
	salt, err := h.Salt()
	if err != nil {
		return "", err
	}
	sum := digest(h.newHash, []byte(salt+h.separator+plain))
	return strings.Join([]string{h.algorithm, salt, sum}, h.separator), nil
}

// Check reports whether candidate matches envelope.
// The algorithm is taken from the envelope, so older envelopes keep
// verifying after the hasher's algorithm changes.
func (h *Hasher) Check(envelope, candidate string) (bool, error) {
	parts := strings.Split(envelope, h.separator)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return false, ErrMalformedHash
	}

	fn, ok := lookup(parts[0])
	if !ok {
		return false, errors.Join(ErrUnknownAlgorithm, fmt.Errorf("%q", parts[0]))
	}

	sum := digest(fn, []byte(parts[1]+h.separator+candidate))
	return subtle.ConstantTimeCompare([]byte(sum), []byte(parts[2])) == 1, nil
}

// NeedsRehash reports whether envelope was produced with another algorithm.
func (h *Hasher) NeedsRehash(envelope string) bool {
	alg, _, ok := strings.Cut(envelope, h.separator)
	return !ok || alg != h.algorithm
}

func digest(fn func() hash.Hash, data []byte) string {
	d := fn()
	_, _ = d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}
