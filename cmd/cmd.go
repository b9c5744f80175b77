package cmd

import (
	"github.com/spf13/cobra"

	"github.com/outfleet/bget/cmd/root"
	"github.com/outfleet/bget/cmd/version"
)

func GetRootCommand() *cobra.Command {
	rootCMD := root.GetCommand()
	rootCMD.AddCommand(version.VersionCMD)
	return rootCMD
}
