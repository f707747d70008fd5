// Package main provides the ledger command line: an interactive menu, an HTTP API
// and one-shot account commands sharing a single record file.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
