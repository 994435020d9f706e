package main

import (
	"strings"

	"github.com/aretw0/forge/internal/cli"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Ask the generator backend for a new project",
	Long: `Sends the prompt to the backend's /template and /chat endpoints and folds both
responses into a session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		format, _ := cmd.Flags().GetString("format")

		bindings := map[string]string{"generator.url": "url"}
		return withApp(cmd, bindings, func(app *cli.App) error {
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			return cli.Generate(sigCtx, app, cli.GenerateOptions{
				Prompt:    strings.Join(args, " "),
				SessionID: sessionID,
				Format:    format,
				Stdout:    cmd.OutOrStdout(),
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("session", "s", "", "Session ID (default derived from the prompt)")
	generateCmd.Flags().String("url", "", "Generator backend base URL (overrides generator.url)")
	generateCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or yaml")
}
