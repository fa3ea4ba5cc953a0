package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/catalog"
	"github.com/leapstack-labs/rideboard/internal/executor"
)

// NewQueriesCommand creates the queries command group.
func NewQueriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "List and run catalog queries",
	}

	cmd.AddCommand(newQueriesListCommand())
	cmd.AddCommand(newQueriesRunCommand())
	return cmd
}

func newQueriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog's query definitions in document order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			queries, err := catalog.Load(cc.Cfg.CatalogPath)
			if err != nil {
				return err
			}

			cols := []string{"index", "title"}
			rows := make([][]string, len(queries))
			for i, q := range queries {
				rows[i] = []string{strconv.Itoa(i), q.Title}
			}
			return renderRows(cmd.OutOrStdout(), cols, rows, cc.Cfg.OutputFormat)
		},
	}
}

func newQueriesRunCommand() *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "run <index|title>",
		Short: "Execute one catalog query and render the bounded result",
		Args:  cobra.ExactArgs(1),
		Example: `  # Run by position
  rideboard queries run 0

  # Run by title and export the rows
  rideboard queries run "Revenue by vehicle type" --export revenue.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogQuery(cmd, args[0], exportPath)
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Also write the result as CSV to this file")
	return cmd
}

func runCatalogQuery(cmd *cobra.Command, ref, exportPath string) error {
	cc := NewCommandContext(cmd)
	if err := cc.Open(cmd.Context()); err != nil {
		return err
	}
	defer cc.Close()

	queries, err := catalog.Load(cc.Cfg.CatalogPath)
	if err != nil {
		return err
	}

	q, err := resolveQuery(queries, ref)
	if err != nil {
		return err
	}

	result := cc.Executor.Run(cmd.Context(), q)
	if err := renderResult(cmd.OutOrStdout(), result, cc.Cfg.OutputFormat); err != nil {
		return err
	}

	if exportPath != "" && result.Status == executor.StatusSuccess {
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := result.WriteCSV(f); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", exportPath)
	}

	return nil
}

// resolveQuery matches a positional index or an exact title. Duplicate
// titles resolve to the first occurrence; use the index for the others.
func resolveQuery(queries []catalog.Query, ref string) (catalog.Query, error) {
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx < 0 || idx >= len(queries) {
			return catalog.Query{}, fmt.Errorf("query index %d out of range (catalog has %d entries)", idx, len(queries))
		}
		return queries[idx], nil
	}
	for _, q := range queries {
		if q.Title == ref {
			return q, nil
		}
	}
	return catalog.Query{}, fmt.Errorf("no catalog query titled %q", ref)
}
