/*
Package application is a library for building executables around an
authenticated AVL+ tree: servers that hold the full tree and publish
signed digests and proofs, and tooling that verifies them.

Encoding

This module implements the message encoding and decoding for
client-server communications. Currently this module only supports JSON
encoding.

Logger

This module implements a generic logging system that can be used by any
application/executable built on this library.

ServerBase

This module provides the shared network layer of a tree server:
listening on tcp and unix addresses, decoding requests, dispatching
them to a handler under the right lock, and encoding responses.
*/
package application
