package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odsconseil/bms/version"
)

// VersionCmd prints build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Println(info.String())
		fmt.Printf("  Go:       %s\n", info.GoVersion)
		fmt.Printf("  Platform: %s\n", info.Platform)
	},
}
