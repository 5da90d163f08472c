// Package main provides the CLI for dbtscore, a linter and scorer for dbt metadata.
package main

import (
	"os"

	"github.com/leapstack-labs/dbtscore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
