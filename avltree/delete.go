package avltree

// deleteHelper is the second descent of a deletion. It is entered only
// after the modify walk found the key and deferred the deletion, and it
// retraces that walk's path by replaying its comparisons. deleteMax
// switches the descent to hunting the maximum leaf of the current
// subtree, whose binding is carried upward through saved and copied
// over the leaf that actually holds the deleted key.
//
// Deletion cannot abort on user input, so nodes are marked visited as
// they are reached.
func (t *treeOps) deleteHelper(node Node, deleteMax bool, saved **Leaf) (Node, bool, error) {
	r, ok := node.(*InternalNode)
	if !ok {
		if _, stub := node.(*LabelOnlyNode); stub {
			return nil, false, ErrLabelOnlyNode
		}
		return nil, false, ErrReplayMismatch
	}
	r.markVisited()

	direction := 1
	if !deleteMax {
		var err error
		direction, err = t.hooks.replayComparison()
		if err != nil {
			return nil, false, err
		}
	}
	if direction < 0 {
		// The modify walk found the key, so a left turn cannot end at
		// a leaf one level down.
		if _, isLeaf := r.left.(*Leaf); isLeaf {
			return nil, false, ErrReplayMismatch
		}
	}

	// Easy deletion: the targeted side is a leaf.
	if direction >= 0 {
		if rightLeaf, isLeaf := r.right.(*Leaf); isLeaf {
			rightLeaf.markVisited()
			if deleteMax {
				// Stash the maximum leaf for the copy-over and hand
				// the subtree to our former sibling.
				*saved = rightLeaf
				return r.left, true, nil
			}
			if direction > 0 {
				return nil, false, ErrReplayMismatch
			}
			newLeft, err := t.changeNextLeafKeyOfMaxNode(r.left, rightLeaf.nextLeafKey)
			if err != nil {
				return nil, false, err
			}
			return newLeft, true, nil
		}
	}
	if direction == 0 {
		if leftLeaf, isLeaf := r.left.(*Leaf); isLeaf {
			leftLeaf.markVisited()
			newRight, err := t.changeKeyAndValueOfMinNode(r.right, leftLeaf.key, leftLeaf.value)
			if err != nil {
				return nil, false, err
			}
			return newRight, true, nil
		}
	}

	// Hard deletion: descend further.
	if direction <= 0 {
		newLeft, childDecreased, err := t.deleteHelper(r.left, direction == 0, saved)
		if err != nil {
			return nil, false, err
		}
		newKey := r.key
		newRight := r.right
		if direction == 0 {
			// The recursion stashed the predecessor leaf; copy it over
			// the leaf holding the deleted key.
			s := *saved
			if s == nil {
				return nil, false, ErrReplayMismatch
			}
			*saved = nil
			newKey = s.key
			newRight, err = t.changeKeyAndValueOfMinNode(r.right, s.key, s.value)
			if err != nil {
				return nil, false, err
			}
		}
		if !childDecreased {
			return r.getNewWithKey(newKey, newLeft, newRight, r.balance), false, nil
		}
		if r.balance > 0 {
			// The right subtree is now two levels taller; rotate to
			// shorten it.
			return t.shortenRight(r.getNewWithKey(newKey, newLeft, newRight, r.balance))
		}
		newBalance := r.balance + 1
		return r.getNewWithKey(newKey, newLeft, newRight, newBalance), newBalance == 0, nil
	}

	newRight, childDecreased, err := t.deleteHelper(r.right, deleteMax, saved)
	if err != nil {
		return nil, false, err
	}
	if !childDecreased {
		return r.getNew(r.left, newRight, r.balance), false, nil
	}
	if r.balance < 0 {
		return t.shortenLeft(r.getNew(r.left, newRight, r.balance))
	}
	newBalance := r.balance - 1
	return r.getNew(r.left, newRight, newBalance), newBalance == 0, nil
}

// shortenRight rebalances r after its left subtree lost a level while
// its right subtree was already the taller one.
func (t *treeOps) shortenRight(r *InternalNode) (Node, bool, error) {
	right, ok := r.right.(*InternalNode)
	if !ok {
		if _, stub := r.right.(*LabelOnlyNode); stub {
			return nil, false, ErrLabelOnlyNode
		}
		return nil, false, ErrReplayMismatch
	}
	right.markVisited()
	if right.balance < 0 {
		root, err := t.doubleLeftRotate(r, right)
		if err != nil {
			return nil, false, err
		}
		return root, true, nil
	}
	// Single left rotation; unlike on the insert path, the rotated
	// pair is not necessarily balanced afterwards.
	newLeft := r.getNew(r.left, right.left, 1-right.balance)
	root := right.getNew(newLeft, right.right, right.balance-1)
	return root, root.balance == 0, nil
}

// shortenLeft mirrors shortenRight for a right subtree that lost a
// level.
func (t *treeOps) shortenLeft(r *InternalNode) (Node, bool, error) {
	left, ok := r.left.(*InternalNode)
	if !ok {
		if _, stub := r.left.(*LabelOnlyNode); stub {
			return nil, false, ErrLabelOnlyNode
		}
		return nil, false, ErrReplayMismatch
	}
	left.markVisited()
	if left.balance > 0 {
		root, err := t.doubleRightRotate(r, left)
		if err != nil {
			return nil, false, err
		}
		return root, true, nil
	}
	newRight := r.getNew(left.right, r.right, -1-left.balance)
	root := left.getNew(left.left, newRight, left.balance+1)
	return root, root.balance == 0, nil
}

// changeNextLeafKeyOfMaxNode walks the right spine down to the maximum
// leaf and rebuilds it with the given next-leaf key, so the leaf chain
// skips a deleted successor.
func (t *treeOps) changeNextLeafKeyOfMaxNode(node Node, nextLeafKey []byte) (Node, error) {
	switch n := node.(type) {
	case *Leaf:
		n.markVisited()
		return n.withNextLeafKey(nextLeafKey), nil
	case *InternalNode:
		n.markVisited()
		newRight, err := t.changeNextLeafKeyOfMaxNode(n.right, nextLeafKey)
		if err != nil {
			return nil, err
		}
		return n.getNew(n.left, newRight, n.balance), nil
	default:
		return nil, ErrLabelOnlyNode
	}
}

// changeKeyAndValueOfMinNode walks the left spine down to the minimum
// leaf and rebuilds it with the given key and value, completing the
// copy-over of a hard deletion. The leaf keeps its next-leaf key.
func (t *treeOps) changeKeyAndValueOfMinNode(node Node, key, value []byte) (Node, error) {
	switch n := node.(type) {
	case *Leaf:
		n.markVisited()
		return n.withKeyAndValue(key, value), nil
	case *InternalNode:
		n.markVisited()
		newLeft, err := t.changeKeyAndValueOfMinNode(n.left, key, value)
		if err != nil {
			return nil, err
		}
		return n.getNew(newLeft, n.right, n.balance), nil
	default:
		return nil, ErrLabelOnlyNode
	}
}
