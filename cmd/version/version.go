package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outfleet/bget/pkg/version"
)

var VersionCMD = &cobra.Command{
	Use:   "version",
	Short: "print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bget %s - Build Time %s\n", version.GetVersion(), version.BuildTime)
	},
}
