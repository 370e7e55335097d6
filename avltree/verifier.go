package avltree

import (
	"bytes"
)

// BatchVerifier starts from only the previous digest plus a proof and
// replays a batch of operations against the partial tree the proof
// opens, deriving the same post-batch digest as the prover without
// ever materializing the whole tree.
//
// The first fatal error poisons the verifier: the proof is invalid and
// the whole batch must be rejected. Non-fatal operation errors (a
// failed update function, a precondition) behave exactly as on the
// prover and leave the verifier usable.
type BatchVerifier struct {
	treeOps
	root        Node
	codes       *comparisonCodes
	dirIndex    int
	opStart     int
	replayIndex int
	err         error
}

var _ roleHooks = (*BatchVerifier)(nil)

// NewBatchVerifier reconstructs the partial pre-batch tree from proof
// and checks it against previousDigest. The digest pins both the root
// label and the starting height.
func NewBatchVerifier(conf Config, previousDigest, proof []byte) (*BatchVerifier, error) {
	v := &BatchVerifier{}
	v.conf = conf.withDefaults()
	v.hooks = v

	label, height, err := v.splitDigest(previousDigest)
	if err != nil {
		return nil, err
	}
	root, codes, err := v.unpackProof(proof)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(root.Label(v.conf.Hasher), label) {
		return nil, ErrInvalidProof
	}
	v.root = root
	v.codes = codes
	v.rootHeight = height
	return v, nil
}

// PerformOneOperation replays one operation of the batch and returns
// the value bound to its key beforehand, exactly as the prover
// reported it.
func (v *BatchVerifier) PerformOneOperation(op Operation) ([]byte, bool, error) {
	if v.err != nil {
		return nil, false, ErrVerifierFailed
	}
	v.opStart = v.dirIndex
	v.replayIndex = v.opStart
	oldHeight := v.rootHeight
	newRoot, oldValue, found, err := v.applyOne(op, v.root)
	if err != nil {
		if isFatal(err) {
			v.err = err
			return nil, false, err
		}
		// The prover recorded nothing for this operation; rewind so
		// the next one reads the same codes.
		v.dirIndex = v.opStart
		v.rootHeight = oldHeight
		return nil, false, err
	}
	v.root = newRoot
	return oldValue, found, nil
}

// Digest returns the digest of the tree after the operations replayed
// so far, or an error if the proof has been rejected.
func (v *BatchVerifier) Digest() ([]byte, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.digest(v.root), nil
}

// Role hooks. The verifier has no routing keys; it resolves every
// choice against the comparison codes the prover recorded, and checks
// each leaf it reaches self-certifyingly against the proof's contents.

func (v *BatchVerifier) keyMatchesLeaf(key []byte, leaf *Leaf) (bool, error) {
	if bytes.Equal(key, leaf.key) {
		return true, nil
	}
	// For a valid non-membership claim the proof must have steered the
	// descent into the one leaf whose interval covers the key.
	if bytes.Compare(leaf.key, key) > 0 || bytes.Compare(key, leaf.nextLeafKey) >= 0 {
		return false, ErrInvalidProof
	}
	return false, nil
}

func (v *BatchVerifier) nextDirectionIsLeft(key []byte, n *InternalNode) (bool, error) {
	sign, err := v.codes.at(v.dirIndex)
	if err != nil {
		return false, err
	}
	v.dirIndex++
	return sign < 0, nil
}

func (v *BatchVerifier) makeLeafPair(leaf *Leaf, key, value []byte) (*InternalNode, error) {
	newLeaf := NewLeafNode(key, value, leaf.nextLeafKey)
	return NewInternalNode(key, leaf.withNextLeafKey(key), newLeaf, 0), nil
}

func (v *BatchVerifier) replayComparison() (int, error) {
	sign, err := v.codes.at(v.replayIndex)
	if err != nil {
		return 0, err
	}
	v.replayIndex++
	return sign, nil
}
