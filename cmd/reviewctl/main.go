// Package main is the entry point for the reviewctl operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ManuelReschke/ReviewBoost/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.DatabaseRepos).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
