// Package cmd implements the CLI commands for an authenticated tree
// server.
package cmd

import (
	"github.com/aa8y/scrypto/cli"
)

// RootCmd represents the base "treeserver" command when called without
// any subcommands.
var RootCmd = cli.NewRootCommand("treeserver",
	"Authenticated AVL+ tree server.",
	`An authenticated dictionary server.

It holds the full AVL+ tree and publishes signed digests, batch proofs
and lookup proofs that clients can verify against the previous digest
alone.`)
