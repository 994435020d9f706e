package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/forge/internal/cli"
	"github.com/aretw0/forge/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Forge as an MCP Server.
This allows AI agents to parse generator responses and build session trees as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

		bindings := map[string]string{"server.port": "port"}
		return withApp(cmd, bindings, func(app *cli.App) error {
			srv := mcp.NewServer(app.Sessions, mcp.WithLogger(app.Logger))

			switch transport {
			case "stdio":
				// Ensure logs don't corrupt JSON-RPC on Stdout
				log.SetOutput(os.Stderr)
				app.Logger.Info("Starting Forge MCP Server (Stdio)")
				if err := srv.ServeStdio(); err != nil {
					return fmt.Errorf("MCP server execution failed: %w", err)
				}
				return nil
			case "sse":
				port := app.Config.Server.Port
				app.Logger.Info("Starting Forge MCP Server (SSE)", "port", port)

				sigCtx := cli.NewSignalContext(cmd.Context())
				defer sigCtx.Cancel()

				if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("MCP server execution failed: %w", err)
				}
				app.Logger.Info("MCP Server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE, overrides server.port)")
}
