/*
Package avltree implements an authenticated AVL+ dictionary: a balanced
binary search tree whose every node carries a cryptographic label, so
that the root label commits to the entire key/value mapping.

All bindings live in the leaves; internal nodes only route the
binary-search descent. Each leaf also names the key of its in-order
successor, which makes non-membership proofs self-certifying: reaching
the one leaf whose key interval covers a missing key proves the key is
not bound anywhere.

The package has two peer roles built on one shared walk. BatchProver
holds the full tree, applies batches of lookups, inserts, updates and
removals, and emits one compact proof per batch. BatchVerifier starts
from only the previous digest plus that proof and replays the same
batch over the partial tree the proof opens, arriving at the same
post-batch digest without ever materializing the whole tree. The walk
is shared precisely because it must be bit-identical between the two
roles: any divergence silently breaks the authentication.

The externally visible digest of a tree is its root label followed by
one byte holding the tree height, interpreted as unsigned.
*/
package avltree
