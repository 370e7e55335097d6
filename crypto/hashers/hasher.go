// Package hashers defines the label computation interface for
// authenticated AVL trees and a registry of available hash algorithms.
package hashers

import "fmt"

// LabelHasher computes the cryptographic labels of tree nodes.
// A node's label is its identity for authentication purposes:
// the root label commits to the entire key/value mapping.
type LabelHasher interface {
	// ID returns the name of the cryptographic hash function.
	ID() string
	// Size returns the size of a label in bytes.
	Size() int
	// Digest provides a universal hash function which
	// hashes all passed byte slices. The passed slices won't be mutated.
	Digest(ms ...[]byte) []byte

	// LeafLabel computes the label of a leaf node from its key,
	// value and next-leaf key.
	LeafLabel(key, value, nextLeafKey []byte) []byte

	// InternalLabel computes the label of an internal node from its
	// balance and the labels of its children. The routing key is not
	// part of the label: the verifier cannot recover it, so it is
	// committed transitively through the right subtree instead.
	InternalLabel(balance int8, leftLabel, rightLabel []byte) []byte
}

var hashers = make(map[string]LabelHasher)

// RegisterHasher registers a label hasher for use.
func RegisterHasher(h string, f func() LabelHasher) {
	if _, ok := hashers[h]; ok {
		panic(fmt.Sprintf("%s is already registered", h))
	}
	hashers[h] = f()
}

// NewLabelHasher returns a registered LabelHasher identified by the given
// string. If no such LabelHasher exists, it returns an error.
func NewLabelHasher(h string) (LabelHasher, error) {
	if f, ok := hashers[h]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%s is an unknown hasher", h)
}
