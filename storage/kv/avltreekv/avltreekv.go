// Package avltreekv persists prover trees in a kv.DB, one version per
// generated proof. Nodes are stored content-addressed under their
// labels, so versions share unchanged subtrees the same way the
// copy-on-write tree shares them in memory.
package avltreekv

import (
	"encoding/binary"

	"github.com/aa8y/scrypto/avltree"
	"github.com/aa8y/scrypto/storage/kv"
)

const (
	// NodeIdentifier is the domain separation for serialized nodes.
	NodeIdentifier = 'N'
	// RootIdentifier is the domain separation for per-version root records.
	RootIdentifier = 'R'
	// LatestVersionIdentifier is the key of the latest version number.
	LatestVersionIdentifier = 'V'
)

const (
	nodeLeaf     = 0x01
	nodeInternal = 0x02
)

// StoreVersion writes every node reachable from the prover's current
// root and records the root under the given version number. A node an
// earlier version already stored is written again under the same label
// with the same content, so versions share it instead of duplicating it.
func StoreVersion(db kv.DB, p *avltree.BatchProver, version uint64) error {
	wb := db.NewBatch()
	if err := storeNode(wb, p, p.Root()); err != nil {
		return err
	}
	wb.Put(rootKey(version), rootRecord(p))
	wb.Put([]byte{LatestVersionIdentifier}, versionBytes(version))
	return db.Write(wb)
}

// LatestVersion returns the version number most recently written by
// StoreVersion.
func LatestVersion(db kv.DB) (uint64, error) {
	buf, err := db.Get([]byte{LatestVersionIdentifier})
	if err != nil {
		return 0, err
	}
	if len(buf) != 8 {
		return 0, kv.ErrBadRecord
	}
	return binary.BigEndian.Uint64(buf), nil
}

// LoadVersion reconstructs a prover from the stored version. The
// returned prover owns a fully materialized tree.
func LoadVersion(db kv.DB, conf avltree.Config, version uint64) (*avltree.BatchProver, error) {
	record, err := db.Get(rootKey(version))
	if err != nil {
		return nil, err
	}
	labelSize := avltree.DigestSize(conf) - 1
	if len(record) != labelSize+1 {
		return nil, kv.ErrBadRecord
	}
	root, err := loadNode(db, conf, record[:labelSize])
	if err != nil {
		return nil, err
	}
	return avltree.NewBatchProverWithRoot(conf, root, int(record[labelSize])), nil
}

func storeNode(wb kv.Batch, p *avltree.BatchProver, node avltree.Node) error {
	h := p.Hasher()
	switch n := node.(type) {
	case *avltree.Leaf:
		buf := make([]byte, 0, 1+len(n.Key())+4+len(n.Value())+len(n.NextLeafKey()))
		buf = append(buf, nodeLeaf)
		buf = append(buf, n.Key()...)
		var lenBytes [4]byte
		binary.BigEndian.PutUint32(lenBytes[:], uint32(len(n.Value())))
		buf = append(buf, lenBytes[:]...)
		buf = append(buf, n.Value()...)
		buf = append(buf, n.NextLeafKey()...)
		wb.Put(nodeKey(n.Label(h)), buf)
		return nil
	case *avltree.InternalNode:
		if err := storeNode(wb, p, n.Left()); err != nil {
			return err
		}
		if err := storeNode(wb, p, n.Right()); err != nil {
			return err
		}
		buf := make([]byte, 0, 2+len(n.RoutingKey())+2*h.Size())
		buf = append(buf, nodeInternal, byte(n.Balance()))
		buf = append(buf, n.RoutingKey()...)
		buf = append(buf, n.Left().Label(h)...)
		buf = append(buf, n.Right().Label(h)...)
		wb.Put(nodeKey(n.Label(h)), buf)
		return nil
	default:
		// A prover tree holds no label-only stubs.
		return kv.ErrBadRecord
	}
}

func loadNode(db kv.DB, conf avltree.Config, label []byte) (avltree.Node, error) {
	buf, err := db.Get(nodeKey(label))
	if err != nil {
		return nil, err
	}
	if len(buf) < 1 {
		return nil, kv.ErrBadRecord
	}
	switch buf[0] {
	case nodeLeaf:
		rest := buf[1:]
		if len(rest) < conf.KeyLength+4 {
			return nil, kv.ErrBadRecord
		}
		key := rest[:conf.KeyLength]
		rest = rest[conf.KeyLength:]
		valueLen := int(binary.BigEndian.Uint32(rest[:4]))
		rest = rest[4:]
		if len(rest) != valueLen+conf.KeyLength {
			return nil, kv.ErrBadRecord
		}
		return avltree.NewLeafNode(key, rest[:valueLen], rest[valueLen:]), nil
	case nodeInternal:
		labelSize := avltree.DigestSize(conf) - 1
		rest := buf[1:]
		if len(rest) != 1+conf.KeyLength+2*labelSize {
			return nil, kv.ErrBadRecord
		}
		balance := int8(rest[0])
		rest = rest[1:]
		routingKey := rest[:conf.KeyLength]
		rest = rest[conf.KeyLength:]
		left, err := loadNode(db, conf, rest[:labelSize])
		if err != nil {
			return nil, err
		}
		right, err := loadNode(db, conf, rest[labelSize:])
		if err != nil {
			return nil, err
		}
		return avltree.NewInternalNode(routingKey, left, right, balance), nil
	default:
		return nil, kv.ErrBadRecord
	}
}

func nodeKey(label []byte) []byte {
	key := make([]byte, 0, 1+len(label))
	key = append(key, NodeIdentifier)
	return append(key, label...)
}

func rootKey(version uint64) []byte {
	key := make([]byte, 0, 1+8)
	key = append(key, RootIdentifier)
	return append(key, versionBytes(version)...)
}

func rootRecord(p *avltree.BatchProver) []byte {
	record := append([]byte{}, p.Root().Label(p.Hasher())...)
	return append(record, byte(p.Height()))
}

func versionBytes(version uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, version)
	return buf
}
