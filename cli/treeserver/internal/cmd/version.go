package cmd

import (
	"github.com/aa8y/scrypto/cli"
)

var versionCmd = cli.NewVersionCommand("treeserver")

func init() {
	RootCmd.AddCommand(versionCmd)
}
