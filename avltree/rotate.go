package avltree

// Double rotations as pure node-graph transforms. Single rotations are
// inlined in the walks, because they assign balances differently on the
// insert and the delete path; the double rotations do not.
//
// The inner pivot's fields are read before any new node is built, so it
// must be materialized and is marked visited here, before the rotation
// runs. The outer child is marked by the caller.

// pivotBalances maps the inner pivot's balance to the balances of the
// rebuilt left and right children. The pivot itself always ends up
// balanced.
func pivotBalances(pivot int8) (left, right int8) {
	switch pivot {
	case 0:
		return 0, 0
	case -1:
		return 0, 1
	default:
		return -1, 0
	}
}

// doubleLeftRotate rebalances cur after its right child r became too
// tall on its left side. r must already be marked visited.
func (t *treeOps) doubleLeftRotate(cur *InternalNode, r *InternalNode) (*InternalNode, error) {
	p, ok := r.left.(*InternalNode)
	if !ok {
		if _, stub := r.left.(*LabelOnlyNode); stub {
			return nil, ErrLabelOnlyNode
		}
		return nil, ErrReplayMismatch
	}
	p.markVisited()
	lb, rb := pivotBalances(p.balance)
	newLeft := cur.getNew(cur.left, p.left, lb)
	newRight := r.getNew(p.right, r.right, rb)
	return p.getNew(newLeft, newRight, 0), nil
}

// doubleRightRotate rebalances cur after its left child l became too
// tall on its right side. l must already be marked visited.
func (t *treeOps) doubleRightRotate(cur *InternalNode, l *InternalNode) (*InternalNode, error) {
	p, ok := l.right.(*InternalNode)
	if !ok {
		if _, stub := l.right.(*LabelOnlyNode); stub {
			return nil, ErrLabelOnlyNode
		}
		return nil, ErrReplayMismatch
	}
	p.markVisited()
	lb, rb := pivotBalances(p.balance)
	newLeft := l.getNew(l.left, p.left, lb)
	newRight := cur.getNew(p.right, cur.right, rb)
	return p.getNew(newLeft, newRight, 0), nil
}
