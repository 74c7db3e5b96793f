package main

import (
	"os"

	"github.com/soyeahso/imbridge/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// Rebuild-and-restart loop for local development.
	if os.Getenv("IMBRIDGE_DEV") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
