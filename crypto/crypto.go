// Package crypto contains some cryptographic routines, to:
// - hash arbitrary data (`Digest`) using BLAKE2b-256
// - generate a random slice of bytes.
//
// Node label computation lives in crypto/hashers; digest signing lives
// in crypto/sign.
package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/blake2b"
)

// HashSizeByte is the size of a Digest output in bytes.
const HashSizeByte = 32

// Digest hashes all passed byte slices. The passed slices won't be
// mutated.
func Digest(ms ...[]byte) []byte {
	h, _ := blake2b.New256(nil)
	for _, m := range ms {
		h.Write(m)
	}
	return h.Sum(nil)
}

// MakeRand generates a random slice of byte and hashes it.
func MakeRand() ([]byte, error) {
	r := make([]byte, HashSizeByte)
	if _, err := rand.Read(r); err != nil {
		return nil, err
	}
	// Do not directly reveal bytes from rand.Read on the wire
	return Digest(r), nil
}
