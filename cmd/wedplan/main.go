package main

import (
	"os"

	"github.com/existflow/wedplan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
