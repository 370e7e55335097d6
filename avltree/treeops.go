package avltree

import (
	"bytes"

	"github.com/aa8y/scrypto/crypto/hashers"
	"github.com/aa8y/scrypto/crypto/hashers/blake2b256"
)

// Config fixes the shape of a tree instance. Both roles of a deployment
// must be constructed from an identical Config, or their digests
// silently diverge.
type Config struct {
	// KeyLength is the fixed length of every key, in bytes.
	KeyLength int
	// ValueLength is the fixed length of every value, in bytes.
	// Zero or negative means values are variable-length.
	ValueLength int
	// Hasher computes node labels. Nil selects BLAKE2b-256.
	Hasher hashers.LabelHasher
}

func (conf Config) withDefaults() Config {
	if conf.Hasher == nil {
		conf.Hasher = blake2b256.New()
	}
	return conf
}

// NegativeInfinityKey returns the reserved minimum key of the given
// length: all bytes zero. It must never be bound by a caller.
func NegativeInfinityKey(keyLength int) []byte {
	return make([]byte, keyLength)
}

// PositiveInfinityKey returns the reserved maximum key of the given
// length: all bytes 0xFF. It must never be bound by a caller.
func PositiveInfinityKey(keyLength int) []byte {
	key := make([]byte, keyLength)
	for i := range key {
		key[i] = 0xFF
	}
	return key
}

// roleHooks are the four operations the shared walks delegate to role
// code. The prover resolves them against routing keys it stores; the
// verifier resolves them against the comparison codes carried by the
// proof. Both must make identical choices on identical batches, or the
// two roles derive different post-state roots.
type roleHooks interface {
	// keyMatchesLeaf reports whether key belongs at leaf, the unique
	// candidate slot identified by the descent.
	keyMatchesLeaf(key []byte, leaf *Leaf) (bool, error)
	// nextDirectionIsLeft reports whether the descent from n goes left.
	nextDirectionIsLeft(key []byte, n *InternalNode) (bool, error)
	// makeLeafPair builds the two-leaf subtree replacing leaf when
	// inserting the strictly greater key.
	makeLeafPair(leaf *Leaf, key, value []byte) (*InternalNode, error)
	// replayComparison yields the next sign of key versus routing key
	// observed during the modify walk; consumed once per call.
	replayComparison() (int, error)
}

// treeOps is the state shared by both roles: the instance shape, the
// tree height and the hook dispatch. The walks themselves are methods
// on treeOps so that prover and verifier run bit-identical code.
type treeOps struct {
	conf       Config
	hooks      roleHooks
	rootHeight int
}

// Height returns the current tree height. A tree whose root is a
// single leaf has height zero.
func (t *treeOps) Height() int { return t.rootHeight }

// Hasher returns the label hasher the instance was configured with.
func (t *treeOps) Hasher() hashers.LabelHasher { return t.conf.Hasher }

func (t *treeOps) checkKey(key []byte) error {
	if len(key) != t.conf.KeyLength {
		return ErrKeyLength
	}
	if bytes.Compare(key, NegativeInfinityKey(t.conf.KeyLength)) <= 0 {
		return ErrSentinelKey
	}
	if bytes.Compare(key, PositiveInfinityKey(t.conf.KeyLength)) >= 0 {
		return ErrSentinelKey
	}
	return nil
}

func (t *treeOps) checkValue(value []byte) error {
	if t.conf.ValueLength > 0 && len(value) != t.conf.ValueLength {
		return ErrValueLength
	}
	return nil
}

// modifyResult is what one frame of the modify walk reports upward.
type modifyResult struct {
	node            Node
	changed         bool
	heightIncreased bool
	toDelete        bool
	oldValue        []byte
	found           bool
}

// applyOne runs one operation against root and returns the new root
// and the value bound to the key before the operation. Deletion is a
// second descent over the intermediate root, driven by the replayed
// comparisons of the first. Height bookkeeping happens here; the walks
// only report direction.
func (t *treeOps) applyOne(op Operation, root Node) (Node, []byte, bool, error) {
	key := op.Key()
	if err := t.checkKey(key); err != nil {
		return nil, nil, false, err
	}
	res, err := t.modifyHelper(root, key, op)
	if err != nil {
		return nil, nil, false, err
	}
	newRoot := res.node
	switch {
	case res.toDelete:
		var saved *Leaf
		nd, heightDecreased, err := t.deleteHelper(newRoot, false, &saved)
		if err != nil {
			return nil, nil, false, err
		}
		newRoot = nd
		if heightDecreased {
			t.rootHeight--
		}
	case res.heightIncreased:
		t.rootHeight++
	}
	if t.rootHeight < 0 || t.rootHeight > 255 {
		return nil, nil, false, ErrHeightRange
	}
	return newRoot, res.oldValue, res.found, nil
}

// modifyHelper is the single recursive descent implementing lookup,
// insert, update and delete discovery. It never deletes: a deletion is
// reported through toDelete and performed by deleteHelper afterwards.
//
// Nodes are marked visited post-order, strictly after the fallible part
// of the operation has succeeded, so an aborted operation leaves no
// proof obligation behind.
func (t *treeOps) modifyHelper(node Node, key []byte, op Operation) (modifyResult, error) {
	switch n := node.(type) {
	case *Leaf:
		return t.modifyLeaf(n, key, op)
	case *InternalNode:
		goLeft, err := t.hooks.nextDirectionIsLeft(key, n)
		if err != nil {
			return modifyResult{}, err
		}
		if goLeft {
			res, err := t.modifyHelper(n.left, key, op)
			if err != nil {
				return modifyResult{}, err
			}
			n.markVisited()
			return t.fixupAfterLeft(n, res)
		}
		res, err := t.modifyHelper(n.right, key, op)
		if err != nil {
			return modifyResult{}, err
		}
		n.markVisited()
		return t.fixupAfterRight(n, res)
	default:
		return modifyResult{}, ErrLabelOnlyNode
	}
}

func (t *treeOps) modifyLeaf(leaf *Leaf, key []byte, op Operation) (modifyResult, error) {
	match, err := t.hooks.keyMatchesLeaf(key, leaf)
	if err != nil {
		return modifyResult{}, err
	}
	mod, isMod := op.(Modification)
	if match {
		if !isMod {
			leaf.markVisited()
			return modifyResult{node: leaf, oldValue: leaf.value, found: true}, nil
		}
		newValue, keep, err := mod.UpdateFn(leaf.value, true)
		if err != nil {
			return modifyResult{}, err
		}
		if !keep {
			// Defer the deletion to the second descent.
			leaf.markVisited()
			return modifyResult{node: leaf, toDelete: true, oldValue: leaf.value, found: true}, nil
		}
		if err := t.checkValue(newValue); err != nil {
			return modifyResult{}, err
		}
		leaf.markVisited()
		return modifyResult{node: leaf.withValue(newValue), changed: true, oldValue: leaf.value, found: true}, nil
	}
	// The key belongs past this leaf.
	if !isMod {
		leaf.markVisited()
		return modifyResult{node: leaf}, nil
	}
	newValue, keep, err := mod.UpdateFn(nil, false)
	if err != nil {
		return modifyResult{}, err
	}
	if !keep {
		leaf.markVisited()
		return modifyResult{node: leaf}, nil
	}
	if err := t.checkValue(newValue); err != nil {
		return modifyResult{}, err
	}
	leaf.markVisited()
	pair, err := t.hooks.makeLeafPair(leaf, key, newValue)
	if err != nil {
		return modifyResult{}, err
	}
	return modifyResult{node: pair, changed: true, heightIncreased: true}, nil
}

// fixupAfterLeft rebuilds n after its left child reported res,
// restoring the AVL shape when the left subtree grew.
func (t *treeOps) fixupAfterLeft(n *InternalNode, res modifyResult) (modifyResult, error) {
	out := modifyResult{toDelete: res.toDelete, oldValue: res.oldValue, found: res.found}
	if !res.changed {
		out.node = n
		return out, nil
	}
	out.changed = true
	if !res.heightIncreased {
		out.node = n.getNew(res.node, n.right, n.balance)
		return out, nil
	}
	if n.balance >= 0 {
		// The left subtree was not the taller one; absorb the growth.
		out.node = n.getNew(res.node, n.right, n.balance-1)
		out.heightIncreased = n.balance == 0
		return out, nil
	}
	// The left subtree was already taller; rotate.
	newLeft, ok := res.node.(*InternalNode)
	if !ok {
		return modifyResult{}, ErrReplayMismatch
	}
	switch {
	case newLeft.balance < 0:
		// Single right rotation: the pivot takes the old root as its
		// right child, handing over its own right subtree.
		out.node = newLeft.getNew(newLeft.left, n.getNew(newLeft.right, n.right, 0), 0)
	case newLeft.balance > 0:
		root, err := t.doubleRightRotate(n, newLeft)
		if err != nil {
			return modifyResult{}, err
		}
		out.node = root
	default:
		// A subtree cannot grow into balance zero.
		return modifyResult{}, ErrReplayMismatch
	}
	return out, nil
}

// fixupAfterRight mirrors fixupAfterLeft for growth on the right.
func (t *treeOps) fixupAfterRight(n *InternalNode, res modifyResult) (modifyResult, error) {
	out := modifyResult{toDelete: res.toDelete, oldValue: res.oldValue, found: res.found}
	if !res.changed {
		out.node = n
		return out, nil
	}
	out.changed = true
	if !res.heightIncreased {
		out.node = n.getNew(n.left, res.node, n.balance)
		return out, nil
	}
	if n.balance <= 0 {
		out.node = n.getNew(n.left, res.node, n.balance+1)
		out.heightIncreased = n.balance == 0
		return out, nil
	}
	newRight, ok := res.node.(*InternalNode)
	if !ok {
		return modifyResult{}, ErrReplayMismatch
	}
	switch {
	case newRight.balance > 0:
		// Single left rotation.
		out.node = newRight.getNew(n.getNew(n.left, newRight.left, 0), newRight.right, 0)
	case newRight.balance < 0:
		root, err := t.doubleLeftRotate(n, newRight)
		if err != nil {
			return modifyResult{}, err
		}
		out.node = root
	default:
		return modifyResult{}, ErrReplayMismatch
	}
	return out, nil
}
