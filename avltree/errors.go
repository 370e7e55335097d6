package avltree

import "errors"

var (
	// ErrInvalidTree indicates a panic due to a malformed operation
	// on the tree: an implementation bug, never user input.
	ErrInvalidTree = errors.New("[avltree] invalid tree")

	// ErrKeyLength is returned when an operation key does not have
	// the tree's configured key length.
	ErrKeyLength = errors.New("[avltree] operation key has the wrong length")

	// ErrSentinelKey is returned when an operation key falls outside
	// the open interval between the two reserved sentinel keys.
	ErrSentinelKey = errors.New("[avltree] operation key is outside the sentinel range")

	// ErrValueLength is returned when a value does not have the
	// tree's fixed value length.
	ErrValueLength = errors.New("[avltree] value has the wrong length")

	// ErrKeyExists is returned by an Insert whose key is already bound.
	ErrKeyExists = errors.New("[avltree] insert of an already bound key")

	// ErrKeyAbsent is returned by an Update or Remove whose key is
	// not bound.
	ErrKeyAbsent = errors.New("[avltree] operation on an absent key")

	// ErrLabelOnlyNode is returned when a walk reaches a label-only
	// stub. On the prover this is a logic bug; on the verifier it
	// means the proof does not open a subtree the batch needs.
	ErrLabelOnlyNode = errors.New("[avltree] walk reached a label-only node")

	// ErrReplayMismatch is returned when the replayed comparison
	// stream dissents from the structure of the tree being walked.
	ErrReplayMismatch = errors.New("[avltree] replayed comparison contradicts the tree")

	// ErrInvalidProof is returned when a proof cannot be parsed or
	// its contents contradict the starting digest.
	ErrInvalidProof = errors.New("[avltree] invalid proof")

	// ErrHeightRange is returned when the tree height leaves [0, 255].
	ErrHeightRange = errors.New("[avltree] tree height out of range")

	// ErrVerifierFailed is returned by every call on a verifier that
	// has already rejected its batch.
	ErrVerifierFailed = errors.New("[avltree] verifier already rejected the batch")

	// ErrDigestLength is returned when a digest is not label-size
	// plus one height byte long.
	ErrDigestLength = errors.New("[avltree] digest has the wrong length")
)

// isFatal reports whether err poisons the whole batch, as opposed to
// failing one operation and leaving the tree reusable. A fatal error on
// the prover side is a logic bug; on the verifier side it means the
// proof is invalid.
func isFatal(err error) bool {
	return errors.Is(err, ErrLabelOnlyNode) ||
		errors.Is(err, ErrReplayMismatch) ||
		errors.Is(err, ErrInvalidProof) ||
		errors.Is(err, ErrHeightRange)
}
