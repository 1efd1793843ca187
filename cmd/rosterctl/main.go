// Package main is the entry point for the rosterctl CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/rostergrid/cmd/rosterctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
