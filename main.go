package main

import (
	"os"

	"github.com/outfleet/bget/cmd"
	"github.com/outfleet/bget/pkg/logging"
)

func main() {
	logging.SetupLogger()
	rootCMD := cmd.GetRootCommand()

	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
