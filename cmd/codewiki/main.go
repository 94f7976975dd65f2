package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/codewiki/internal/adapters/driving/cli"
)

// version is set via ldflags during release builds.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
