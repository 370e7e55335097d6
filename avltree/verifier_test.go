package avltree

import (
	"bytes"
	"errors"
	"testing"
)

// runBothRoles applies one batch on the prover, then replays it on a
// verifier constructed from only the pre-batch digest and the proof,
// and fails unless both roles arrive at the same post-batch digest.
func runBothRoles(t *testing.T, conf Config, p *BatchProver, ops []Operation) {
	t.Helper()
	previous := p.Digest()
	proverValues := make([][]byte, len(ops))
	proverFound := make([]bool, len(ops))
	for i, op := range ops {
		value, found, err := p.PerformOneOperation(op)
		if err != nil {
			t.Fatal(err)
		}
		proverValues[i], proverFound[i] = value, found
	}
	proof := p.GenerateProof()
	want := p.Digest()

	v, err := NewBatchVerifier(conf, previous, proof)
	if err != nil {
		t.Fatal(err)
	}
	for i, op := range ops {
		value, found, err := v.PerformOneOperation(op)
		if err != nil {
			t.Fatal(err)
		}
		if found != proverFound[i] || !bytes.Equal(value, proverValues[i]) {
			t.Fatalf("operation %d: verifier observed (%x, %v), prover observed (%x, %v)",
				i, value, found, proverValues[i], proverFound[i])
		}
	}
	got, err := v.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("verifier digest %x differs from prover digest %x", got, want)
	}
}

func TestCrossRoleScenarios(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)

	runBothRoles(t, conf, p, []Operation{
		NewInsert(intKey(1), []byte{0xAA, 0xAA, 0xAA, 0xAA}),
	})
	runBothRoles(t, conf, p, []Operation{
		NewInsert(intKey(2), []byte{0xBB, 0xBB, 0xBB, 0xBB}),
	})
	runBothRoles(t, conf, p, []Operation{
		NewLookup(intKey(2)),
		NewLookup(intKey(5)),
	})
	runBothRoles(t, conf, p, []Operation{
		NewUpdate(intKey(1), []byte{0xCC, 0xCC, 0xCC, 0xCC}),
		NewLookup(intKey(1)),
	})
	runBothRoles(t, conf, p, []Operation{
		NewRemove(intKey(1)),
		NewLookup(intKey(1)),
	})
}

func TestCrossRoleBulk(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)

	var inserts []Operation
	for i := uint32(1); i <= 64; i++ {
		inserts = append(inserts, NewInsert(intKey(i), intValue(i)))
	}
	runBothRoles(t, conf, p, inserts)

	var removals []Operation
	for i := uint32(64); i >= 1; i-- {
		removals = append(removals, NewRemove(intKey(i)))
	}
	runBothRoles(t, conf, p, removals)

	empty := NewBatchProver(conf)
	if !bytes.Equal(p.Digest(), empty.Digest()) {
		t.Fatal("digest not restored after deleting every key")
	}
}

func TestCrossRoleMixedBatch(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)
	var setup []Operation
	for i := uint32(10); i <= 50; i += 10 {
		setup = append(setup, NewInsert(intKey(i), intValue(i)))
	}
	runBothRoles(t, conf, p, setup)

	runBothRoles(t, conf, p, []Operation{
		NewInsert(intKey(15), intValue(15)),
		NewRemove(intKey(30)),
		NewUpdate(intKey(10), intValue(11)),
		NewRemoveIfExists(intKey(99)),
		NewLookup(intKey(15)),
		NewInsertOrUpdate(intKey(20), intValue(21)),
		NewInsertOrUpdate(intKey(60), intValue(60)),
		NewRemove(intKey(50)),
	})
}

func TestCrossRoleVariableValues(t *testing.T) {
	conf := Config{KeyLength: 4}
	p := NewBatchProver(conf)
	runBothRoles(t, conf, p, []Operation{
		NewInsert(intKey(1), []byte("v")),
		NewInsert(intKey(2), []byte("a much longer value than the first one")),
		NewInsert(intKey(3), nil),
		NewUpdate(intKey(1), []byte("replacement of a different length")),
		NewRemove(intKey(2)),
	})
}

func TestVerifierRejectsWrongDigest(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)
	mustPerform(t, p, NewInsert(intKey(1), intValue(1)))
	previous := p.Digest()
	mustPerform(t, p, NewInsert(intKey(2), intValue(2)))
	proof := p.GenerateProof()

	// The proof was generated against the batch-start tree, not the
	// intermediate digest.
	if _, err := NewBatchVerifier(conf, previous, proof); !errors.Is(err, ErrInvalidProof) {
		t.Fatal("verifier accepted a proof for the wrong digest:", err)
	}
}

func TestVerifierRejectsTamperedProof(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)
	previous := p.Digest()
	mustPerform(t, p, NewInsert(intKey(1), intValue(1)))
	proof := p.GenerateProof()

	for i := 0; i < len(proof); i++ {
		tampered := append([]byte{}, proof...)
		tampered[i] ^= 0x40
		v, err := NewBatchVerifier(conf, previous, tampered)
		if err != nil {
			continue
		}
		if _, _, err := v.PerformOneOperation(NewInsert(intKey(1), intValue(1))); err != nil {
			continue
		}
		got, err := v.Digest()
		if err != nil {
			continue
		}
		if bytes.Equal(got, p.Digest()) {
			t.Fatalf("tampering with proof byte %d went unnoticed", i)
		}
	}
}

func TestVerifierRejectsTruncatedProof(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)
	previous := p.Digest()
	mustPerform(t, p, NewInsert(intKey(1), intValue(1)))
	proof := p.GenerateProof()

	for i := 0; i < len(proof); i++ {
		if _, err := NewBatchVerifier(conf, previous, proof[:i]); err == nil {
			t.Fatalf("verifier accepted a proof truncated to %d bytes", i)
		}
	}
}

func TestVerifierRejectsUnprovenOperation(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)
	var setup []Operation
	for i := uint32(1); i <= 32; i++ {
		setup = append(setup, NewInsert(intKey(i), intValue(i)))
	}
	for _, op := range setup {
		mustPerform(t, p, op)
	}
	p.GenerateProof()
	previous := p.Digest()

	// A batch touching only key 5; the proof opens nothing else.
	mustPerform(t, p, NewLookup(intKey(5)))
	proof := p.GenerateProof()

	v, err := NewBatchVerifier(conf, previous, proof)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := v.PerformOneOperation(NewRemove(intKey(23))); err == nil {
		t.Fatal("verifier replayed an operation the proof does not cover")
	}
	if _, err := v.Digest(); err == nil {
		t.Fatal("poisoned verifier still produced a digest")
	}
}

func TestVerifierFailedOperationKeepsState(t *testing.T) {
	conf := testConfig()
	p := NewBatchProver(conf)
	mustPerform(t, p, NewInsert(intKey(1), intValue(1)))
	p.GenerateProof()
	previous := p.Digest()

	mustPerform(t, p, NewLookup(intKey(1)))
	proof := p.GenerateProof()

	v, err := NewBatchVerifier(conf, previous, proof)
	if err != nil {
		t.Fatal(err)
	}
	// A precondition failure consumes nothing and poisons nothing.
	if _, _, err := v.PerformOneOperation(NewInsert(NegativeInfinityKey(4), intValue(1))); !errors.Is(err, ErrSentinelKey) {
		t.Fatal("sentinel key accepted:", err)
	}
	value, found, err := v.PerformOneOperation(NewLookup(intKey(1)))
	if err != nil {
		t.Fatal(err)
	}
	if !found || !bytes.Equal(value, intValue(1)) {
		t.Fatal("verifier lookup returned the wrong value")
	}
	got, err := v.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, previous) {
		t.Fatal("lookup changed the verifier digest")
	}
}
