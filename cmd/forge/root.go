package main

import (
	"fmt"
	"os"

	"github.com/aretw0/forge/internal/cli"
	"github.com/aretw0/forge/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Forge turns generator responses into project file trees",
	Long: `Forge parses boltArtifact/boltAction responses from a prompt-completion backend into
build steps, folds them into a file tree and mounts the tree into a sandbox directory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./forge.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadApp builds the application from --config, FORGE_* variables and defaults.
// bindings maps config keys to flags of cmd that override them when set.
func loadApp(cmd *cobra.Command, bindings map[string]string) (*cli.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	v := config.New()
	for key, name := range bindings {
		if err := v.BindPFlag(key, lookupFlag(cmd, name)); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, debug)
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.InheritedFlags().Lookup(name)
}

// withApp runs fn with a loaded App and closes it afterwards.
func withApp(cmd *cobra.Command, bindings map[string]string, fn func(app *cli.App) error) error {
	app, err := loadApp(cmd, bindings)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
