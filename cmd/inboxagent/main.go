package main

import (
	"os"

	"github.com/nhle/inbox-agent/cmd/inboxagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
