package avltree

import (
	"bytes"
	"encoding/binary"
)

// A proof is the visited part of the pre-batch tree, serialized
// post-order, followed by the comparison codes the prover recorded
// while walking the batch:
//
//	proof     := tree 0x04 codeCount(uint32) codeBytes
//	tree      := node*
//	node      := 0x00 label                        label-only stub
//	           | 0x01 key valueLen(uint32) value nextLeafKey
//	           | 0x02 balance                      children precede
//
// Values are always length-prefixed: even under a fixed value length
// the sentinel leaf of an empty tree carries an empty value.
// Comparison codes are two bits each, packed
// LSB-first; they let the verifier retrace every descent without the
// routing keys, which never leave the prover.

const (
	proofLabelOnly = 0x00
	proofLeaf      = 0x01
	proofInternal  = 0x02
	proofEndOfTree = 0x04
)

const (
	codeLess    = 0
	codeGreater = 1
	codeEqual   = 2
)

// comparisonCodes is an append-only stream of three-valued comparison
// signs, two bits per entry.
type comparisonCodes struct {
	bits  []byte
	count int
}

func (c *comparisonCodes) append(sign int) {
	code := byte(codeLess)
	switch {
	case sign > 0:
		code = codeGreater
	case sign == 0:
		code = codeEqual
	}
	if c.count%4 == 0 {
		c.bits = append(c.bits, 0)
	}
	c.bits[c.count/4] |= code << uint((c.count%4)*2)
	c.count++
}

// at returns the sign stored at index i as -1, 0 or +1.
func (c *comparisonCodes) at(i int) (int, error) {
	if i < 0 || i >= c.count {
		return 0, ErrReplayMismatch
	}
	code := (c.bits[i/4] >> uint((i%4)*2)) & 3
	switch code {
	case codeLess:
		return -1, nil
	case codeGreater:
		return 1, nil
	case codeEqual:
		return 0, nil
	default:
		return 0, ErrInvalidProof
	}
}

// truncate discards every entry from index n on. Used to roll back the
// codes of a failed operation, which must not appear in the proof.
func (c *comparisonCodes) truncate(n int) {
	if n >= c.count {
		return
	}
	c.count = n
	c.bits = c.bits[:(n+3)/4]
	if n%4 != 0 {
		c.bits[n/4] &= (1 << uint((n%4)*2)) - 1
	}
}

// packTree serializes the visited part of the subtree rooted at node
// post-order into buf. Unvisited children are reduced to their labels.
func (t *treeOps) packTree(buf *bytes.Buffer, node Node) {
	if !node.visited() {
		buf.WriteByte(proofLabelOnly)
		buf.Write(node.Label(t.conf.Hasher))
		return
	}
	switch n := node.(type) {
	case *Leaf:
		buf.WriteByte(proofLeaf)
		buf.Write(n.key)
		var lenBytes [4]byte
		binary.BigEndian.PutUint32(lenBytes[:], uint32(len(n.value)))
		buf.Write(lenBytes[:])
		buf.Write(n.value)
		buf.Write(n.nextLeafKey)
	case *InternalNode:
		t.packTree(buf, n.left)
		t.packTree(buf, n.right)
		buf.WriteByte(proofInternal)
		buf.WriteByte(byte(n.balance))
	default:
		// A label-only node cannot carry a visited mark.
		panic(ErrInvalidTree)
	}
}

// packCodes appends the end-of-tree marker and the comparison codes.
func packCodes(buf *bytes.Buffer, codes *comparisonCodes) {
	buf.WriteByte(proofEndOfTree)
	var countBytes [4]byte
	binary.BigEndian.PutUint32(countBytes[:], uint32(codes.count))
	buf.Write(countBytes[:])
	buf.Write(codes.bits)
}

// unpackProof parses a proof into the reconstructed partial tree and
// the comparison code stream. Internal nodes come back without routing
// keys. The whole buffer must be consumed.
func (t *treeOps) unpackProof(proof []byte) (Node, *comparisonCodes, error) {
	r := bytes.NewReader(proof)
	labelSize := t.conf.Hasher.Size()
	var stack []Node
treeLoop:
	for {
		marker, err := r.ReadByte()
		if err != nil {
			return nil, nil, ErrInvalidProof
		}
		switch marker {
		case proofLabelOnly:
			label := make([]byte, labelSize)
			if _, err := readFull(r, label); err != nil {
				return nil, nil, err
			}
			stack = append(stack, NewLabelOnlyNode(label))
		case proofLeaf:
			key := make([]byte, t.conf.KeyLength)
			if _, err := readFull(r, key); err != nil {
				return nil, nil, err
			}
			var lenBytes [4]byte
			if _, err := readFull(r, lenBytes[:]); err != nil {
				return nil, nil, err
			}
			valueLen := int(binary.BigEndian.Uint32(lenBytes[:]))
			if valueLen > r.Len() {
				return nil, nil, ErrInvalidProof
			}
			value := make([]byte, valueLen)
			if _, err := readFull(r, value); err != nil {
				return nil, nil, err
			}
			nextLeafKey := make([]byte, t.conf.KeyLength)
			if _, err := readFull(r, nextLeafKey); err != nil {
				return nil, nil, err
			}
			stack = append(stack, NewLeafNode(key, value, nextLeafKey))
		case proofInternal:
			balance, err := r.ReadByte()
			if err != nil {
				return nil, nil, ErrInvalidProof
			}
			b := int8(balance)
			if b < -1 || b > 1 {
				return nil, nil, ErrInvalidProof
			}
			if len(stack) < 2 {
				return nil, nil, ErrInvalidProof
			}
			left, right := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			stack = append(stack, NewInternalNode(nil, left, right, b))
		case proofEndOfTree:
			break treeLoop
		default:
			return nil, nil, ErrInvalidProof
		}
	}
	if len(stack) != 1 {
		return nil, nil, ErrInvalidProof
	}
	var countBytes [4]byte
	if _, err := readFull(r, countBytes[:]); err != nil {
		return nil, nil, err
	}
	count := int(binary.BigEndian.Uint32(countBytes[:]))
	if (count+3)/4 > r.Len() {
		return nil, nil, ErrInvalidProof
	}
	codeBytes := make([]byte, (count+3)/4)
	if _, err := readFull(r, codeBytes); err != nil {
		return nil, nil, err
	}
	if r.Len() != 0 {
		return nil, nil, ErrInvalidProof
	}
	return stack[0], &comparisonCodes{bits: codeBytes, count: count}, nil
}

func readFull(r *bytes.Reader, p []byte) (int, error) {
	if len(p) == 0 {
		// bytes.Reader reports io.EOF for an empty read at the end of
		// the buffer, e.g. an empty code stream.
		return 0, nil
	}
	n, err := r.Read(p)
	if err != nil || n != len(p) {
		return n, ErrInvalidProof
	}
	return n, nil
}
