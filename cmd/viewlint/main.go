// Package main provides the viewlint CLI entrypoint.
package main

import (
	"os"

	"github.com/viewlint-labs/viewlint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
