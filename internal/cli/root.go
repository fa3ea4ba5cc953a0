// Package cli provides the command-line interface for rideboard.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/cli/commands"
	"github.com/leapstack-labs/rideboard/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rideboard",
		Short: "rideboard - Ride analytics over DuckDB",
		Long: `rideboard is a read-only analytical surface over a single ride-hailing
trip dataset, built with Go and DuckDB.

It filters trips by categorical attributes, computes KPIs and aggregates,
and executes a catalog of named analytical SQL queries on demand.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rideboard.yaml)")
	rootCmd.PersistentFlags().String("dataset", "", "Path to the ride dataset (.csv or .parquet)")
	rootCmd.PersistentFlags().String("catalog", "", "Path to the query catalog file")
	rootCmd.PersistentFlags().String("table", "", "Table name the dataset is registered under")
	rootCmd.PersistentFlags().String("engine-path", "", "Path to DuckDB database (empty for in-memory)")
	rootCmd.PersistentFlags().String("history", "", "Path to run-history database (empty disables history)")
	rootCmd.PersistentFlags().Int("row-limit", 0, "Maximum rows materialized per query")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json|csv|md)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewKPICommand())
	rootCmd.AddCommand(commands.NewChartsCommand())
	rootCmd.AddCommand(commands.NewQueriesCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
