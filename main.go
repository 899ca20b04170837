// Package main is the entry point for the Starburst CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/starburst/cmd"
	"github.com/danielolaszy/starburst/internal/logging"
)

// version is set at build time with -ldflags.
var version = "dev"

// main executes the root command and exits non-zero on failure.
func main() {
	logging.Debug("starting starburst", "version", version)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
