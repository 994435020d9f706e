package main

import (
	"github.com/aretw0/forge/internal/cli"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [file...]",
	Short: "Materialize generator responses into the sandbox directory",
	Long: `Parses each response in order, folds the steps into one file tree and mounts it into
the sandbox directory. Reads Stdin when no file is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		format, _ := cmd.Flags().GetString("format")

		bindings := map[string]string{"sandbox.dir": "out"}
		return withApp(cmd, bindings, func(app *cli.App) error {
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			return cli.Build(sigCtx, app, cli.BuildOptions{
				Inputs:    args,
				SessionID: sessionID,
				DryRun:    dryRun,
				Format:    format,
				Stdin:     cmd.InOrStdin(),
				Stdout:    cmd.OutOrStdout(),
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("session", "s", "", "Fold the responses into a stored session")
	buildCmd.Flags().StringP("out", "o", "", "Sandbox directory (overrides sandbox.dir)")
	buildCmd.Flags().Bool("dry-run", false, "Print the result without writing files")
	buildCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or yaml")
}
