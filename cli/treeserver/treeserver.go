// Executable authenticated tree server. See README for
// usage instructions.
package main

import (
	"github.com/aa8y/scrypto/cli"
	"github.com/aa8y/scrypto/cli/treeserver/internal/cmd"
)

func main() {
	cli.Execute(cmd.RootCmd)
}
