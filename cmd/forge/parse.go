package main

import (
	"github.com/aretw0/forge/internal/cli"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a generator response into build steps",
	Long:  `Reads one generator response from a file or Stdin and prints the steps it contains. Nothing is stored or written.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		input := ""
		if len(args) > 0 {
			input = args[0]
		}
		return withApp(cmd, nil, func(app *cli.App) error {
			return cli.Parse(cmd.Context(), app, input, format, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("format", "f", cli.FormatJSON, "Output format: json, yaml or text")
}
