package password

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"slices"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm names as stored in envelopes.
const (
	MD5        = "md5"
	SHA1       = "sha1"
	SHA256     = "sha256"
	SHA384     = "sha384"
	SHA512     = "sha512"
	SHA3_256   = "sha3-256"
	SHA3_512   = "sha3-512"
	BLAKE2b256 = "blake2b-256"
	BLAKE2b512 = "blake2b-512"
	BLAKE3     = "blake3"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() hash.Hash{
		MD5:      md5.New,
		SHA1:     sha1.New,
		SHA256:   sha256.New,
		SHA384:   sha512.New384,
		SHA512:   sha512.New,
		SHA3_256: func() hash.Hash { return sha3.New256() },
		SHA3_512: func() hash.Hash { return sha3.New512() },
		BLAKE2b256: func() hash.Hash {
			h, _ := blake2b.New256(nil)
			return h
		},
		BLAKE2b512: func() hash.Hash {
			h, _ := blake2b.New512(nil)
			return h
		},
		BLAKE3: func() hash.Hash { return blake3.New() },
	}
)

// Register adds or replaces a named algorithm.
func Register(name string, fn func() hash.Hash) {
	if name == "" || fn == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// Algorithms returns the registered algorithm names, sorted.
func Algorithms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookup(name string) (func() hash.Hash, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}
