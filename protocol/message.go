// Defines the message format of the tree server protocol and
// constructors for the response messages of each request type.

package protocol

// The types of requests clients send to a tree server.
const (
	DigestType = iota
	LookupType
	ModifyType
)

// A Request message defines the data a client must send to a tree
// server for a particular request.
type Request struct {
	Type    int
	Request interface{}
}

// A DigestRequest asks the server for its current signed digest.
// The optional Nonce is bound into the signature, so a client that
// sends a fresh one can tell a live answer from a replayed one.
type DigestRequest struct {
	Nonce []byte `json:",omitempty"`
}

// A LookupRequest asks the server for the value bound to a key,
// together with a single-operation proof a verifier can replay against
// the server's published digest.
type LookupRequest struct {
	Key []byte
}

// A TreeOp is one mutation of a ModifyRequest. Op is one of "insert",
// "update", "upsert", "remove" and "removeIfExists"; Value is ignored
// for the removals.
type TreeOp struct {
	Op    string
	Key   []byte
	Value []byte `json:",omitempty"`
}

// A ModifyRequest asks the server to apply a batch of mutations. The
// response carries the batch proof and the new signed digest, so any
// holder of the previous digest can verify the transition.
type ModifyRequest struct {
	Ops []TreeOp
}

// A Response message is what the server sends back for any request.
// TreeResponse is nil when Error is not ReqSuccess.
type Response struct {
	Error        ErrorCode
	TreeResponse interface{} `json:",omitempty"`
}

// A DigestResponse carries the server's current digest and a
// signature of digest and nonce under the server's published signing
// key. Nonce echoes the request's nonce, or one the server drew
// itself when the request carried none.
type DigestResponse struct {
	Digest    []byte
	Nonce     []byte
	Signature []byte
}

// A LookupResponse carries the pre-lookup digest, the value bound to
// the requested key if any, and the proof of the lookup.
type LookupResponse struct {
	Digest  []byte
	Value   []byte `json:",omitempty"`
	Present bool
	Proof   []byte
}

// A ModifyResponse carries the digest before the batch, the batch
// proof, and the signed digest after the batch. OldValues holds the
// value each operation observed before it ran, aligned with the
// request's Ops.
type ModifyResponse struct {
	PreviousDigest []byte
	Proof          []byte
	Digest         []byte
	Signature      []byte
	OldValues      []*OldValue
}

// An OldValue reports what one operation of a batch found bound to its
// key before running.
type OldValue struct {
	Value   []byte `json:",omitempty"`
	Present bool
}

// NewErrorResponse constructs a response carrying only an error code.
func NewErrorResponse(e ErrorCode) *Response {
	return &Response{Error: e}
}

// NewDigestResponse constructs a successful digest response.
func NewDigestResponse(digest, nonce, signature []byte) *Response {
	return &Response{
		Error: ReqSuccess,
		TreeResponse: &DigestResponse{
			Digest:    digest,
			Nonce:     nonce,
			Signature: signature,
		},
	}
}

// NewLookupResponse constructs a successful lookup response.
func NewLookupResponse(digest, value []byte, present bool, proof []byte) *Response {
	return &Response{
		Error: ReqSuccess,
		TreeResponse: &LookupResponse{
			Digest:  digest,
			Value:   value,
			Present: present,
			Proof:   proof,
		},
	}
}

// NewModifyResponse constructs a successful modify response.
func NewModifyResponse(previousDigest, proof, digest, signature []byte, oldValues []*OldValue) *Response {
	return &Response{
		Error: ReqSuccess,
		TreeResponse: &ModifyResponse{
			PreviousDigest: previousDigest,
			Proof:          proof,
			Digest:         digest,
			Signature:      signature,
			OldValues:      oldValues,
		},
	}
}
