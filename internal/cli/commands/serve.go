package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/catalog"
	"github.com/leapstack-labs/rideboard/internal/history"
	"github.com/leapstack-labs/rideboard/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long: `Start a local HTTP server exposing the dashboard JSON API.

The API provides:
- Filter option sets and filtered KPIs
- Chart aggregates (daily volume, revenue, top vehicles, ratings)
- The query catalog, per-query execution, and CSV export
- Recent run history`,
		Example: `  # Start on the default port
  rideboard serve

  # Custom port, no catalog watching
  rideboard serve --port 3000 --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload the catalog when the file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cc.Open(ctx); err != nil {
		return err
	}
	defer cc.Close()

	queries, err := catalog.Load(cc.Cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load query catalog: %w", err)
	}
	cc.Logger.Info("catalog loaded", "path", cc.Cfg.CatalogPath, "queries", len(queries))

	var hist *history.Store
	if cc.Cfg.HistoryPath != "" {
		hist, err = history.Open(cc.Cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer func() { _ = hist.Close() }()
	}

	uiCfg := cc.Cfg.GetUIConfig()
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	server := ui.NewServer(ui.Config{
		Dataset:     cc.Dataset,
		Executor:    cc.Executor,
		History:     hist,
		Queries:     queries,
		CatalogPath: cc.Cfg.CatalogPath,
		Port:        port,
		Watch:       watch,
		Logger:      cc.Logger,
	})

	return server.Serve(ctx)
}
