package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/forge/internal/cli"
	httpAdapter "github.com/aretw0/forge/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes parsing, session ingest, trees, mount descriptors and change events as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindings := map[string]string{"server.port": "port"}
		return withApp(cmd, bindings, func(app *cli.App) error {
			handler := httpAdapter.NewHandler(app.Sessions,
				httpAdapter.WithStreams(app.Streams),
				httpAdapter.WithMetrics(app.Metrics),
				httpAdapter.WithLogger(app.Logger),
			)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", app.Config.Server.Port),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				app.Logger.Info("Starting Forge Server", "address", srv.Addr, "store", app.Config.Store.Kind)
				fmt.Fprintf(cmd.OutOrStdout(), "Starting Forge Server on %s\n", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			// Blocking main and waiting for shutdown.
			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case <-sigCtx.Done():
				fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", sigCtx.Signal())

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				// Asking listener to shut down and shed load.
				if err := srv.Shutdown(ctx); err != nil {
					app.Logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
					if err := srv.Close(); err != nil {
						return fmt.Errorf("error killing server: %w", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Forge Server stopped gracefully")
				return nil
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
