package server

import (
	"bytes"
	"os"
	"path"
	"testing"
	"time"

	"github.com/aa8y/scrypto/application"
	"github.com/aa8y/scrypto/application/testutil"
	"github.com/aa8y/scrypto/avltree"
	"github.com/aa8y/scrypto/crypto"
	"github.com/aa8y/scrypto/crypto/sign"
	"github.com/aa8y/scrypto/protocol"
	"github.com/aa8y/scrypto/utils"
)

func startTestServer(t *testing.T) (*TreeServer, sign.PublicKey) {
	t.Helper()
	dir := t.TempDir()

	sk, err := sign.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	pk, _ := sk.Public()
	if err := utils.WriteFile(path.Join(dir, "sign.priv"), sk, 0600); err != nil {
		t.Fatal(err)
	}

	os.Remove(testutil.LocalConnection)
	file := path.Join(dir, "config.toml")
	addrs := []*Address{
		{
			ServerAddress: &application.ServerAddress{
				Address: "unix://" + testutil.LocalConnection,
			},
			AllowModification: true,
		},
	}
	logger := &application.LoggerConfig{Environment: "development"}
	conf := NewConfig(file, "toml", addrs, logger, 4, 4, "",
		"sign.priv", "tree.db")
	if err := conf.Save(); err != nil {
		t.Fatal(err)
	}

	loaded := &Config{}
	if err := loaded.Load(file, "toml"); err != nil {
		t.Fatal(err)
	}
	serv, err := NewTreeServer(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if err := serv.Run(loaded.Addresses); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { serv.Shutdown() })
	// Give the listener goroutine a moment to come up.
	time.Sleep(50 * time.Millisecond)
	return serv, pk
}

func request(t *testing.T, reqType int, req interface{}) *protocol.Response {
	t.Helper()
	msg, err := application.MarshalRequest(reqType, req)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := testutil.NewUnixClient(msg)
	if err != nil {
		t.Fatal(err)
	}
	return application.UnmarshalResponse(reqType, raw)
}

func TestServerDigestAndModify(t *testing.T) {
	_, pk := startTestServer(t)

	nonce, err := crypto.MakeRand()
	if err != nil {
		t.Fatal(err)
	}
	res := request(t, protocol.DigestType, &protocol.DigestRequest{Nonce: nonce})
	if res.Error != protocol.ReqSuccess {
		t.Fatal("digest request failed:", res.Error)
	}
	digest0 := res.TreeResponse.(*protocol.DigestResponse)
	if !bytes.Equal(digest0.Nonce, nonce) {
		t.Fatal("digest nonce not echoed")
	}
	if !pk.Verify(append(append([]byte{}, digest0.Digest...), nonce...), digest0.Signature) {
		t.Fatal("digest signature invalid")
	}

	// Without a client nonce the server draws its own.
	res = request(t, protocol.DigestType, &protocol.DigestRequest{})
	if res.Error != protocol.ReqSuccess {
		t.Fatal("digest request failed:", res.Error)
	}
	served := res.TreeResponse.(*protocol.DigestResponse)
	if len(served.Nonce) == 0 {
		t.Fatal("server did not draw a nonce")
	}
	if !pk.Verify(append(append([]byte{}, served.Digest...), served.Nonce...), served.Signature) {
		t.Fatal("server-nonce digest signature invalid")
	}

	res = request(t, protocol.ModifyType, &protocol.ModifyRequest{
		Ops: []protocol.TreeOp{
			{Op: "insert", Key: []byte{0, 0, 0, 1}, Value: []byte{9, 9, 9, 9}},
			{Op: "insert", Key: []byte{0, 0, 0, 2}, Value: []byte{8, 8, 8, 8}},
		},
	})
	if res.Error != protocol.ReqSuccess {
		t.Fatal("modify request failed:", res.Error)
	}
	modify := res.TreeResponse.(*protocol.ModifyResponse)
	if !pk.Verify(modify.Digest, modify.Signature) {
		t.Fatal("post-batch digest signature invalid")
	}
	if !bytes.Equal(modify.PreviousDigest, digest0.Digest) {
		t.Fatal("previous digest mismatch")
	}
	if len(modify.OldValues) != 2 || modify.OldValues[0].Present {
		t.Fatal("old values mangled")
	}

	// Any holder of the previous digest can verify the transition.
	conf := avltree.Config{KeyLength: 4, ValueLength: 4}
	v, err := avltree.NewBatchVerifier(conf, modify.PreviousDigest, modify.Proof)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := v.PerformOneOperation(avltree.NewInsert([]byte{0, 0, 0, 1}, []byte{9, 9, 9, 9})); err != nil {
		t.Fatal(err)
	}
	if _, _, err := v.PerformOneOperation(avltree.NewInsert([]byte{0, 0, 0, 2}, []byte{8, 8, 8, 8})); err != nil {
		t.Fatal(err)
	}
	got, err := v.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, modify.Digest) {
		t.Fatal("verified digest differs from the server's")
	}
}

func TestServerLookup(t *testing.T) {
	_, _ = startTestServer(t)

	res := request(t, protocol.ModifyType, &protocol.ModifyRequest{
		Ops: []protocol.TreeOp{
			{Op: "insert", Key: []byte{0, 0, 0, 7}, Value: []byte{7, 7, 7, 7}},
		},
	})
	if res.Error != protocol.ReqSuccess {
		t.Fatal("modify request failed:", res.Error)
	}
	digest := res.TreeResponse.(*protocol.ModifyResponse).Digest

	res = request(t, protocol.LookupType, &protocol.LookupRequest{Key: []byte{0, 0, 0, 7}})
	if res.Error != protocol.ReqSuccess {
		t.Fatal("lookup request failed:", res.Error)
	}
	lookup := res.TreeResponse.(*protocol.LookupResponse)
	if !lookup.Present || !bytes.Equal(lookup.Value, []byte{7, 7, 7, 7}) {
		t.Fatal("lookup returned the wrong value")
	}
	if !bytes.Equal(lookup.Digest, digest) {
		t.Fatal("lookup digest differs from the published digest")
	}

	conf := avltree.Config{KeyLength: 4, ValueLength: 4}
	v, err := avltree.NewBatchVerifier(conf, lookup.Digest, lookup.Proof)
	if err != nil {
		t.Fatal(err)
	}
	value, present, err := v.PerformOneOperation(avltree.NewLookup([]byte{0, 0, 0, 7}))
	if err != nil {
		t.Fatal(err)
	}
	if !present || !bytes.Equal(value, []byte{7, 7, 7, 7}) {
		t.Fatal("lookup proof does not certify the value")
	}
	if got, err := v.Digest(); err != nil || !bytes.Equal(got, lookup.Digest) {
		t.Fatal("lookup proof changed the digest")
	}
}

func TestServerRejectsBadBatch(t *testing.T) {
	_, _ = startTestServer(t)

	res := request(t, protocol.ModifyType, &protocol.ModifyRequest{
		Ops: []protocol.TreeOp{
			{Op: "insert", Key: []byte{0, 0, 0, 1}, Value: []byte{1, 1, 1, 1}},
			{Op: "update", Key: []byte{0, 0, 0, 9}, Value: []byte{2, 2, 2, 2}},
		},
	})
	if res.Error != protocol.ErrOperationFailed {
		t.Fatal("batch with a failing operation accepted:", res.Error)
	}

	// The failed batch must have been rolled back entirely.
	res = request(t, protocol.LookupType, &protocol.LookupRequest{Key: []byte{0, 0, 0, 1}})
	if res.Error != protocol.ReqSuccess {
		t.Fatal("lookup request failed:", res.Error)
	}
	if res.TreeResponse.(*protocol.LookupResponse).Present {
		t.Fatal("rolled back insert is visible")
	}

	res = request(t, protocol.ModifyType, &protocol.ModifyRequest{
		Ops: []protocol.TreeOp{
			{Op: "frobnicate", Key: []byte{0, 0, 0, 1}},
		},
	})
	if res.Error != protocol.ErrMalformedMessage {
		t.Fatal("unknown op accepted:", res.Error)
	}
}
