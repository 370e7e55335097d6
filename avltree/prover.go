package avltree

import (
	"bytes"
)

// BatchProver holds the full tree and applies batches of operations to
// it, accumulating enough bookkeeping to emit a compact proof of the
// whole batch. Internal nodes on the prover side store their routing
// keys explicitly; the proof never carries them.
//
// A prover must not be shared between goroutines without external
// synchronization: the visited flags and the height counter belong to
// the batch in progress.
type BatchProver struct {
	treeOps
	root      Node
	oldRoot   Node
	oldHeight int
	codes     comparisonCodes
	// opStart is the code index where the running operation began; a
	// deletion replays its comparisons from there.
	opStart     int
	replayIndex int
}

var _ roleHooks = (*BatchProver)(nil)

// NewBatchProver returns a prover over a freshly created empty tree:
// a single leaf binding the negative-infinity sentinel, chained to the
// positive-infinity sentinel.
func NewBatchProver(conf Config) *BatchProver {
	conf = conf.withDefaults()
	root := NewLeafNode(
		NegativeInfinityKey(conf.KeyLength),
		nil,
		PositiveInfinityKey(conf.KeyLength),
	)
	return newBatchProver(conf, root, 0)
}

// NewBatchProverWithRoot returns a prover resuming from a previously
// built tree, e.g. one reloaded from versioned storage.
func NewBatchProverWithRoot(conf Config, root Node, height int) *BatchProver {
	return newBatchProver(conf.withDefaults(), root, height)
}

func newBatchProver(conf Config, root Node, height int) *BatchProver {
	p := &BatchProver{
		root:      root,
		oldRoot:   root,
		oldHeight: height,
	}
	p.conf = conf
	p.rootHeight = height
	p.hooks = p
	return p
}

// Digest returns the current digest: root label and height byte.
func (p *BatchProver) Digest() []byte {
	return p.digest(p.root)
}

// Root returns the current root node.
func (p *BatchProver) Root() Node {
	return p.root
}

// PerformOneOperation applies one operation to the tree and returns
// the value bound to its key beforehand. A failed operation returns
// its error with the tree, the height and the pending proof unchanged.
func (p *BatchProver) PerformOneOperation(op Operation) ([]byte, bool, error) {
	p.opStart = p.codes.count
	p.replayIndex = p.opStart
	oldHeight := p.rootHeight
	newRoot, oldValue, found, err := p.applyOne(op, p.root)
	if err != nil {
		p.codes.truncate(p.opStart)
		p.rootHeight = oldHeight
		return nil, false, err
	}
	p.root = newRoot
	return oldValue, found, nil
}

// UnauthenticatedLookup reads the value at key without recording any
// proof obligation. It serves reads that need no authentication, such
// as the prover answering its own queries.
func (p *BatchProver) UnauthenticatedLookup(key []byte) ([]byte, bool) {
	if p.checkKey(key) != nil {
		return nil, false
	}
	node := p.root
	for {
		switch n := node.(type) {
		case *Leaf:
			if bytes.Equal(key, n.key) {
				return n.value, true
			}
			return nil, false
		case *InternalNode:
			if bytes.Compare(key, n.key) < 0 {
				node = n.left
			} else {
				node = n.right
			}
		default:
			panic(ErrInvalidTree)
		}
	}
}

// GenerateProof packs the proof of every operation performed since the
// previous GenerateProof (or since construction), resets the visited
// flags and starts the next batch at the current tree.
func (p *BatchProver) GenerateProof() []byte {
	buf := new(bytes.Buffer)
	p.packTree(buf, p.oldRoot)
	packCodes(buf, &p.codes)

	clearVisited(p.oldRoot)
	clearVisited(p.root)
	p.oldRoot = p.root
	p.oldHeight = p.rootHeight
	p.codes = comparisonCodes{}
	p.opStart = 0
	p.replayIndex = 0
	return buf.Bytes()
}

// RollbackBatch discards every operation performed since the previous
// GenerateProof, restoring the tree the pending proof would have been
// based on. The old nodes were never modified, only copied, so the old
// root is still intact.
func (p *BatchProver) RollbackBatch() {
	clearVisited(p.oldRoot)
	clearVisited(p.root)
	p.root = p.oldRoot
	p.rootHeight = p.oldHeight
	p.codes = comparisonCodes{}
	p.opStart = 0
	p.replayIndex = 0
}

// clearVisited resets the visited flags of the marked region reachable
// from node. Marks always form a connected region from the root, so
// the walk stops at the first unmarked node.
func clearVisited(node Node) {
	if !node.visited() {
		return
	}
	node.clearVisited()
	if n, ok := node.(*InternalNode); ok {
		clearVisited(n.left)
		clearVisited(n.right)
	}
}

// Role hooks. The prover resolves every choice against the routing
// keys it stores, recording each comparison for the proof.

func (p *BatchProver) keyMatchesLeaf(key []byte, leaf *Leaf) (bool, error) {
	if bytes.Equal(key, leaf.key) {
		return true, nil
	}
	// The descent identifies the unique leaf whose interval holds the
	// key; anything else is a corrupted tree.
	if bytes.Compare(leaf.key, key) > 0 || bytes.Compare(key, leaf.nextLeafKey) >= 0 {
		panic(ErrInvalidTree)
	}
	return false, nil
}

func (p *BatchProver) nextDirectionIsLeft(key []byte, n *InternalNode) (bool, error) {
	sign := bytes.Compare(key, n.key)
	p.codes.append(sign)
	return sign < 0, nil
}

func (p *BatchProver) makeLeafPair(leaf *Leaf, key, value []byte) (*InternalNode, error) {
	newLeaf := NewLeafNode(key, value, leaf.nextLeafKey)
	return NewInternalNode(key, leaf.withNextLeafKey(key), newLeaf, 0), nil
}

func (p *BatchProver) replayComparison() (int, error) {
	sign, err := p.codes.at(p.replayIndex)
	if err != nil {
		return 0, err
	}
	p.replayIndex++
	return sign, nil
}
