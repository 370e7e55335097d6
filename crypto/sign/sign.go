// Package sign wraps ed25519 signatures for publishing tree digests.
package sign

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
)

const (
	// PrivateKeySize is the size of a serialized private key.
	PrivateKeySize = 64
	// PublicKeySize is the size of a serialized public key.
	PublicKeySize = 32
	// SignatureSize is the size of a signature.
	SignatureSize = 64
)

// PrivateKey wraps an ed25519 private key.
type PrivateKey ed25519.PrivateKey

// PublicKey wraps an ed25519 public key.
type PublicKey ed25519.PublicKey

// GenerateKey generates a fresh key pair using the provided source of
// entropy, or crypto/rand if rnd is nil.
func GenerateKey(rnd io.Reader) (PrivateKey, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	_, sk, err := ed25519.GenerateKey(rnd)
	return PrivateKey(sk), err
}

// Sign signs the message with the private key and returns the signature.
func (key PrivateKey) Sign(message []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(key), message)
}

// Public returns the public key corresponding to the private key.
func (key PrivateKey) Public() (PublicKey, bool) {
	pk, ok := ed25519.PrivateKey(key).Public().(ed25519.PublicKey)
	return PublicKey(pk), ok
}

// Verify reports whether sig is a valid signature of message under pk.
func (pk PublicKey) Verify(message, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pk), message, sig)
}
