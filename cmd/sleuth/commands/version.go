package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the Sleuth version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sleuth v%s\n", Version)
	},
}
