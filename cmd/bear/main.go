// Command bear launches the terminal pipeline orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/sdslab-dev/bear/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
