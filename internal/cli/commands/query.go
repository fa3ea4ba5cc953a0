package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/catalog"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run ad hoc SQL against the registered ride table",
		Long: `Execute read-only SQL directly against the ride dataset.

The dataset is registered under a fixed table name (default "rides").
Results are bounded by the configured row limit; aggregates inside the
query see the full dataset.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  rideboard query "SELECT vehicle_type, COUNT(*) FROM rides GROUP BY 1"

  # Read SQL from a file
  rideboard query --input analysis.sql

  # Pipe SQL in
  echo "SELECT COUNT(*) FROM rides" | rideboard query

  # Interactive mode
  rideboard query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	if err := cc.Open(cmd.Context()); err != nil {
		return err
	}
	defer cc.Close()

	format := opts.Format
	if format == "" {
		format = cc.Cfg.OutputFormat
	}

	// Determine SQL source
	var sqlText string
	switch {
	case len(args) > 0:
		sqlText = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlText = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlText = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cc, format)
	}

	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return fmt.Errorf("no SQL to execute")
	}

	result := cc.Executor.Run(cmd.Context(), catalog.Query{Title: "ad hoc", SQL: sqlText})
	return renderResult(cmd.OutOrStdout(), result, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
