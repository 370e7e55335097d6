package avltree

import (
	"github.com/aa8y/scrypto/crypto/hashers"
)

// Node is one of the three tree node variants: *InternalNode, *Leaf or
// *LabelOnlyNode. Nodes are immutable once built, except for the cached
// label and the transient visited flag. Modified subtrees are produced
// by copy-on-write constructors that share unmodified children with the
// old node, so an old root remains usable for an in-progress proof.
type Node interface {
	// Label returns the node's cryptographic label, computing and
	// caching it on first use.
	Label(h hashers.LabelHasher) []byte

	visited() bool
	markVisited()
	clearVisited()
}

var _ Node = (*InternalNode)(nil)
var _ Node = (*Leaf)(nil)
var _ Node = (*LabelOnlyNode)(nil)

// Leaf holds one key/value binding. Its nextLeafKey is the key of the
// in-order successor leaf; the chain of next-leaf keys makes
// non-membership proofs self-certifying. The rightmost leaf's
// nextLeafKey is the positive-infinity sentinel.
type Leaf struct {
	key         []byte
	value       []byte
	nextLeafKey []byte
	label       []byte
	seen        bool
}

// InternalNode routes the binary-search descent. Its key is the minimum
// key of the right subtree; a node reconstructed from a proof carries a
// nil key, because the proof does not transfer routing keys.
type InternalNode struct {
	key     []byte
	left    Node
	right   Node
	balance int8
	label   []byte
	seen    bool
}

// LabelOnlyNode stands in for a subtree a proof does not open.
// Reaching one during a walk is a protocol error.
type LabelOnlyNode struct {
	label []byte
}

// NewLeafNode returns a leaf holding the given binding.
func NewLeafNode(key, value, nextLeafKey []byte) *Leaf {
	return &Leaf{
		key:         key,
		value:       value,
		nextLeafKey: nextLeafKey,
	}
}

// NewInternalNode returns an internal node with the given routing key,
// children and balance.
func NewInternalNode(key []byte, left, right Node, balance int8) *InternalNode {
	return &InternalNode{
		key:     key,
		left:    left,
		right:   right,
		balance: balance,
	}
}

// NewLabelOnlyNode returns a stub node carrying a precomputed label.
func NewLabelOnlyNode(label []byte) *LabelOnlyNode {
	return &LabelOnlyNode{label: label}
}

// Key returns the stored key.
func (l *Leaf) Key() []byte { return l.key }

// Value returns the stored value.
func (l *Leaf) Value() []byte { return l.value }

// NextLeafKey returns the key of the in-order successor leaf.
func (l *Leaf) NextLeafKey() []byte { return l.nextLeafKey }

// RoutingKey returns the minimum key of the right subtree, or nil for
// a node reconstructed from a proof.
func (n *InternalNode) RoutingKey() []byte { return n.key }

// Left returns the left child.
func (n *InternalNode) Left() Node { return n.left }

// Right returns the right child.
func (n *InternalNode) Right() Node { return n.right }

// Balance returns the recorded height difference between the right and
// the left subtree.
func (n *InternalNode) Balance() int8 { return n.balance }

// Copy-on-write constructors. Each returns a fresh node with the given
// fields changed and everything else shared with the receiver. The
// receiver is left intact; old labels stay valid.

func (l *Leaf) withValue(value []byte) *Leaf {
	return &Leaf{
		key:         l.key,
		value:       value,
		nextLeafKey: l.nextLeafKey,
	}
}

func (l *Leaf) withKeyAndValue(key, value []byte) *Leaf {
	return &Leaf{
		key:         key,
		value:       value,
		nextLeafKey: l.nextLeafKey,
	}
}

func (l *Leaf) withNextLeafKey(nextLeafKey []byte) *Leaf {
	return &Leaf{
		key:         l.key,
		value:       l.value,
		nextLeafKey: nextLeafKey,
	}
}

func (n *InternalNode) getNew(left, right Node, balance int8) *InternalNode {
	return &InternalNode{
		key:     n.key,
		left:    left,
		right:   right,
		balance: balance,
	}
}

func (n *InternalNode) getNewWithKey(key []byte, left, right Node, balance int8) *InternalNode {
	return &InternalNode{
		key:     key,
		left:    left,
		right:   right,
		balance: balance,
	}
}

func (l *Leaf) Label(h hashers.LabelHasher) []byte {
	if l.label == nil {
		l.label = h.LeafLabel(l.key, l.value, l.nextLeafKey)
	}
	return l.label
}

func (n *InternalNode) Label(h hashers.LabelHasher) []byte {
	if n.label == nil {
		n.label = h.InternalLabel(n.balance, n.left.Label(h), n.right.Label(h))
	}
	return n.label
}

func (n *LabelOnlyNode) Label(h hashers.LabelHasher) []byte {
	return n.label
}

func (l *Leaf) visited() bool         { return l.seen }
func (l *Leaf) markVisited()          { l.seen = true }
func (l *Leaf) clearVisited()         { l.seen = false }
func (n *InternalNode) visited() bool { return n.seen }
func (n *InternalNode) markVisited()  { n.seen = true }
func (n *InternalNode) clearVisited() { n.seen = false }

func (n *LabelOnlyNode) visited() bool { return false }
func (n *LabelOnlyNode) markVisited()  { panic(ErrInvalidTree) }
func (n *LabelOnlyNode) clearVisited() {}
