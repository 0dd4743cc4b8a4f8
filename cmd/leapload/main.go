// Package main provides the leapload CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapload/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
