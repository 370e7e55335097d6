package sha3256

import (
	"golang.org/x/crypto/sha3"

	"github.com/aa8y/scrypto/crypto/hashers"
)

func init() {
	hashers.RegisterHasher(AVL_Label_SHA3_256, New)
}

// AVL_Label_SHA3_256 is the identity of the SHA3-256 label
// computation strategy.
const AVL_Label_SHA3_256 = "AVL_Label_SHA3_256"

const (
	leafIdentifier     = 0
	internalIdentifier = 1
)

type hasher struct{}

// New returns an instance of AVL_Label_SHA3_256.
func New() hashers.LabelHasher {
	return &hasher{}
}

func (hasher) ID() string {
	return AVL_Label_SHA3_256
}

func (hasher) Size() int {
	return 32
}

func (h *hasher) Digest(ms ...[]byte) []byte {
	d := sha3.New256()
	for _, m := range ms {
		d.Write(m)
	}
	return d.Sum(nil)
}

// LeafLabel computes the label of a leaf as:
// H(Identifier || key || value || nextLeafKey).
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
