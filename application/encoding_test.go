package application

import (
	"bytes"
	"testing"

	"github.com/aa8y/scrypto/protocol"
)

func TestUnmarshalLookupRequest(t *testing.T) {
	msg, err := MarshalRequest(protocol.LookupType, &protocol.LookupRequest{
		Key: []byte{0, 0, 0, 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	req, err := UnmarshalRequest(msg)
	if err != nil {
		t.Fatal(err)
	}
	if req.Type != protocol.LookupType {
		t.Fatal("wrong request type:", req.Type)
	}
	lookup, ok := req.Request.(*protocol.LookupRequest)
	if !ok {
		t.Fatalf("wrong request payload type: %T", req.Request)
	}
	if !bytes.Equal(lookup.Key, []byte{0, 0, 0, 5}) {
		t.Fatal("request key mangled")
	}
}

func TestUnmarshalModifyRequest(t *testing.T) {
	msg, err := MarshalRequest(protocol.ModifyType, &protocol.ModifyRequest{
		Ops: []protocol.TreeOp{
			{Op: "insert", Key: []byte{0, 0, 0, 1}, Value: []byte{9, 9, 9, 9}},
			{Op: "remove", Key: []byte{0, 0, 0, 2}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	req, err := UnmarshalRequest(msg)
	if err != nil {
		t.Fatal(err)
	}
	modify, ok := req.Request.(*protocol.ModifyRequest)
	if !ok {
		t.Fatalf("wrong request payload type: %T", req.Request)
	}
	if len(modify.Ops) != 2 || modify.Ops[1].Op != "remove" {
		t.Fatal("modify ops mangled")
	}
}

func TestUnmarshalResponseRoundtrip(t *testing.T) {
	response := protocol.NewDigestResponse([]byte{1, 2, 3}, []byte{7, 7}, []byte{4, 5, 6})
	msg, err := MarshalResponse(response)
	if err != nil {
		t.Fatal(err)
	}
	got := UnmarshalResponse(protocol.DigestType, msg)
	if got.Error != protocol.ReqSuccess {
		t.Fatal("unexpected error code:", got.Error)
	}
	digest, ok := got.TreeResponse.(*protocol.DigestResponse)
	if !ok {
		t.Fatalf("wrong response payload type: %T", got.TreeResponse)
	}
	if !bytes.Equal(digest.Digest, []byte{1, 2, 3}) || !bytes.Equal(digest.Signature, []byte{4, 5, 6}) {
		t.Fatal("digest response mangled")
	}
	if !bytes.Equal(digest.Nonce, []byte{7, 7}) {
		t.Fatal("digest nonce mangled")
	}
}

func TestUnmarshalErrorResponse(t *testing.T) {
	msg, err := MarshalResponse(protocol.NewErrorResponse(protocol.ErrOperationFailed))
	if err != nil {
		t.Fatal(err)
	}
	got := UnmarshalResponse(protocol.ModifyType, msg)
	if got.Error != protocol.ErrOperationFailed {
		t.Fatal("error code lost in transit:", got.Error)
	}
	if got.TreeResponse != nil {
		t.Fatal("error response carries a payload")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := UnmarshalRequest([]byte("not json")); err == nil {
		t.Fatal("garbage request parsed")
	}
	got := UnmarshalResponse(protocol.DigestType, []byte("not json"))
	if got.Error != protocol.ErrMalformedMessage {
		t.Fatal("garbage response not flagged as malformed")
	}
}
