package avltreekv

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/aa8y/scrypto/avltree"
	"github.com/aa8y/scrypto/storage/kv"
	"github.com/aa8y/scrypto/storage/kv/leveldbkv"
)

func testConfig() avltree.Config {
	return avltree.Config{KeyLength: 4, ValueLength: 4}
}

func intKey(i uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, i)
	return key
}

func withDB(t *testing.T, f func(db kv.DB)) {
	t.Helper()
	db, err := leveldbkv.OpenDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	f(db)
}

func TestStoreLoadRoundtrip(t *testing.T) {
	withDB(t, func(db kv.DB) {
		p := avltree.NewBatchProver(testConfig())
		for i := uint32(1); i <= 40; i++ {
			if _, _, err := p.PerformOneOperation(avltree.NewInsert(intKey(i), intKey(i))); err != nil {
				t.Fatal(err)
			}
		}
		p.GenerateProof()

		if err := StoreVersion(db, p, 1); err != nil {
			t.Fatal(err)
		}
		version, err := LatestVersion(db)
		if err != nil {
			t.Fatal(err)
		}
		if version != 1 {
			t.Fatal("wrong latest version:", version)
		}

		loaded, err := LoadVersion(db, testConfig(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(loaded.Digest(), p.Digest()) {
			t.Fatal("loaded tree digest differs from stored tree digest")
		}
		if loaded.Height() != p.Height() {
			t.Fatal("loaded tree height differs")
		}
		value, found := loaded.UnauthenticatedLookup(intKey(17))
		if !found || !bytes.Equal(value, intKey(17)) {
			t.Fatal("loaded tree lost a binding")
		}
	})
}

func TestVersionsShareNodes(t *testing.T) {
	withDB(t, func(db kv.DB) {
		p := avltree.NewBatchProver(testConfig())
		for i := uint32(1); i <= 10; i++ {
			if _, _, err := p.PerformOneOperation(avltree.NewInsert(intKey(i), intKey(i))); err != nil {
				t.Fatal(err)
			}
		}
		p.GenerateProof()
		if err := StoreVersion(db, p, 1); err != nil {
			t.Fatal(err)
		}
		digest1 := p.Digest()

		if _, _, err := p.PerformOneOperation(avltree.NewRemove(intKey(5))); err != nil {
			t.Fatal(err)
		}
		p.GenerateProof()
		if err := StoreVersion(db, p, 2); err != nil {
			t.Fatal(err)
		}

		// Rolling back means loading the older version; its nodes are
		// still there, content-addressed by their labels.
		old, err := LoadVersion(db, testConfig(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(old.Digest(), digest1) {
			t.Fatal("old version digest changed after storing a newer one")
		}
		if _, found := old.UnauthenticatedLookup(intKey(5)); !found {
			t.Fatal("old version lost the binding removed in the new one")
		}

		latest, err := LatestVersion(db)
		if err != nil {
			t.Fatal(err)
		}
		if latest != 2 {
			t.Fatal("wrong latest version:", latest)
		}
	})
}

func TestLoadMissingVersion(t *testing.T) {
	withDB(t, func(db kv.DB) {
		if _, err := LoadVersion(db, testConfig(), 7); err == nil {
			t.Fatal("loaded a version that was never stored")
		}
		if _, err := LatestVersion(db); err != db.ErrNotFound() {
			t.Fatal("empty database should report no latest version")
		}
	})
}
