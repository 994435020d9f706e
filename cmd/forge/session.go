package main

import (
	"github.com/aretw0/forge/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all sessions",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.ListSessions(cmd.Context(), app, cmd.OutOrStdout())
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:     "show <session-id>",
	Aliases: []string{"inspect"},
	Short:   "Show the steps and file tree of a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.ShowSession(cmd.Context(), app, args[0], format, cmd.OutOrStdout())
		})
	},
}

var sessionLogCmd = &cobra.Command{
	Use:   "log <session-id>",
	Short: "List the generator responses archived for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.ShowLog(cmd.Context(), app, args[0], cmd.OutOrStdout())
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.RemoveSessions(cmd.Context(), app, args, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionLogCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionShowCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or yaml")
}
