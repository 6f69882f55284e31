// Package password hashes and verifies salted password envelopes.
//
// An envelope is three fields joined by a separator:
//
//	sha256$<salt>$<hash>
//
// The salt is the hex digest of 64 bytes read from a cryptographically secure
// random source, and the hash is the hex digest of salt + separator + plain
// text, both computed with the algorithm named in the first field. Because
// the algorithm is stored in the envelope, [Hasher.Check] verifies envelopes
// produced with any registered algorithm, not only the hasher's own.
//
// [Hasher.MinLength] is the storage capacity an envelope needs. Callers that
// persist envelopes should verify their column can hold it before hashing.
//
//	h, err := password.New()
//	if err != nil {
//	    return err // no secure random source
//	}
//	env, err := h.Hash("correct-horse")
//	ok, err := h.Check(env, "correct-horse")
package password
