package main

import (
	"github.com/aretw0/forge/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-ingest a response file every time it changes",
	Long: `Watches the file and treats every new version as another generator response,
keeping the sandbox directory in sync until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		bindings := map[string]string{"sandbox.dir": "out"}
		return withApp(cmd, bindings, func(app *cli.App) error {
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			err := cli.Watch(sigCtx, app, cli.WatchOptions{
				Input:     args[0],
				SessionID: sessionID,
				Debounce:  debounce,
				Stdout:    cmd.OutOrStdout(),
			})
			if sig := sigCtx.Signal(); sig != nil {
				app.Logger.Info("Watcher interrupted", "signal", sig.String())
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("session", "s", "", "Persist the workspace in this session")
	watchCmd.Flags().StringP("out", "o", "", "Sandbox directory (overrides sandbox.dir)")
	watchCmd.Flags().Duration("debounce", cli.DefaultWatchDebounce, "Quiet period before a change is ingested")
}
