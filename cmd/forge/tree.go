package main

import (
	"github.com/aretw0/forge/internal/cli"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <session-id>",
	Short: "Print the file tree of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mount, _ := cmd.Flags().GetBool("mount")
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.ShowTree(cmd.Context(), app, args[0], mount, cmd.OutOrStdout())
		})
	},
}

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Export the file tree visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the session's file tree.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.ShowGraph(cmd.Context(), app, args[0], cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(graphCmd)
	treeCmd.Flags().Bool("mount", false, "Print the sandbox mount descriptor as JSON instead")
}
