package blake2b256

import (
	"golang.org/x/crypto/blake2b"

	"github.com/aa8y/scrypto/crypto/hashers"
)

func init() {
	hashers.RegisterHasher(AVL_Label_BLAKE2b_256, New)
}

const (
	// AVL_Label_BLAKE2b_256 is the identity of the default label
	// computation strategy, with BLAKE2b-256 as the hash algorithm.
	AVL_Label_BLAKE2b_256 = "AVL_Label_BLAKE2b_256"

	leafIdentifier     = 0
	internalIdentifier = 1
)

type hasher struct{}

// New returns an instance of AVL_Label_BLAKE2b_256.
func New() hashers.LabelHasher {
	return &hasher{}
}

func (hasher) ID() string {
	return AVL_Label_BLAKE2b_256
}

func (hasher) Size() int {
	return blake2b.Size256
}

func (h *hasher) Digest(ms ...[]byte) []byte {
	d, _ := blake2b.New256(nil)
	for _, m := range ms {
		d.Write(m)
	}
	return d.Sum(nil)
}

// LeafLabel computes the label of a leaf as:
// H(Identifier || key || value || nextLeafKey).
// Key and next-leaf key have a fixed per-instance length, so the
// concatenation parses unambiguously even for variable-length values.
func (h *hasher) LeafLabel(key, value, nextLeafKey []byte) []byte {
	return h.Digest(
		[]byte{leafIdentifier},
		key,
		value,
		nextLeafKey,
	)
}

// InternalLabel computes the label of an internal node as:
// H(Identifier || balance || left || right).
func (h *hasher) InternalLabel(balance int8, leftLabel, rightLabel []byte) []byte {
	return h.Digest(
		[]byte{internalIdentifier},
		[]byte{byte(balance)},
		leftLabel,
		rightLabel,
	)
}
