// Package main is the entry point for the posting sync service.
package main

import (
	"os"

	"github.com/stacklok/posting-sync/cmd/posting-sync/app"
)

func main() {
	// stdout stays free for command output such as version --format json
	app.ConfigureLogging(os.Stderr)

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
