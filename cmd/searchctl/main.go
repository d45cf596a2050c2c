// Command searchctl compiles parameter searches against an entity catalog
// and prints the resulting SQL or FT.SEARCH statement.
package main

import (
	"fmt"
	"os"

	"github.com/manojoshi/paramsearch/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "searchctl:", err)
		os.Exit(1)
	}
}
