// Package main is the entry point for the ticketpulse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/ticketpulse/cmd"
	"github.com/danielolaszy/ticketpulse/internal/logging"
)

var version = "dev"

func main() {
	logging.Debug("starting ticketpulse", "version", version)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
