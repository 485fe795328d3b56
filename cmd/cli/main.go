package main

import (
	"os"

	"github.com/marcelsud/lead-relay/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
