package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of forge",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsInteractive(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "forge version %s\n", strings.TrimSpace(forge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
