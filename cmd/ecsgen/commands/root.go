// Package commands provides the CLI commands for the ecsgen tool.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"martianoff/ecsgen/internal/config"
	"martianoff/ecsgen/internal/logger"
)

var (
	configPath string
	workDir    string
	verbosity  int
	jsonLogs   bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ecsgen",
	Short: "Code generator for ECS components, capabilities and scripts",
	Long: `ecsgen augments ECS declarations with generated Go code.

It finds types marked with the framework's marker types and writes, next to
each one, the handles, dispatch functions and registration code the runtime
needs:
  - collection and managed components
  - capability interfaces and their dispatch tables
  - behavior scripts and their authoring adapters

Usage:
  ecsgen generate ./...      Generate code for every package
  ecsgen check ./...         Fail when generated code is stale
  ecsgen clean               Remove generated files
  ecsgen graph ./...         Export the capability graph to Neo4j
  ecsgen version             Print version`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath, workDir)
		if err != nil {
			return err
		}
		cfg = loaded
		level := max(verbosity, cfg.Log.Verbosity)
		return logger.Initialize(jsonLogs || cfg.Log.JSON, level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command. An interrupt cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to ecsgen.toml (default: search upward from --dir)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Directory to run in (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
}
