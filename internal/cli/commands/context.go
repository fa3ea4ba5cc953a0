package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/adapter"
	"github.com/leapstack-labs/rideboard/internal/config"
	"github.com/leapstack-labs/rideboard/internal/dataset"
	"github.com/leapstack-labs/rideboard/internal/executor"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the resolved configuration in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// CommandContext carries the shared state a command needs: resolved
// config, logger, and (once Open is called) the engine handle with the
// registered dataset.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger

	Adapter  adapter.Adapter
	Dataset  *dataset.Dataset
	Executor *executor.Executor
}

// NewCommandContext extracts config and logger from the command context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cc := &CommandContext{}
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		cc.Cfg = cfg
	} else {
		cc.Cfg = &config.Config{
			TableName:    config.DefaultTableName,
			CatalogPath:  config.DefaultCatalogPath,
			RowLimit:     config.DefaultRowLimit,
			OutputFormat: config.DefaultOutput,
		}
	}
	if logger, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		cc.Logger = logger
	} else {
		cc.Logger = slog.Default()
	}
	return cc
}

// Open connects the analytical engine, loads the dataset once, and builds
// the executor over the registered table. Close must be called when done.
func (cc *CommandContext) Open(ctx context.Context) error {
	if err := cc.Cfg.Validate(); err != nil {
		return err
	}

	a, err := adapter.New(adapter.Config{Type: "duckdb", Path: cc.Cfg.EnginePath})
	if err != nil {
		return err
	}
	if err := a.Connect(ctx, adapter.Config{Type: "duckdb", Path: cc.Cfg.EnginePath}); err != nil {
		return err
	}

	provider := dataset.NewProvider(a, cc.Cfg.TableName, cc.Cfg.DatasetPath, cc.Logger)
	ds, err := provider.Get(ctx)
	if err != nil {
		_ = a.Close()
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	cc.Adapter = a
	cc.Dataset = ds
	cc.Executor = executor.New(a, cc.Cfg.TableName, cc.Cfg.RowLimit, cc.Logger)
	return nil
}

// Close releases the engine handle.
func (cc *CommandContext) Close() {
	if cc.Adapter != nil {
		_ = cc.Adapter.Close()
	}
}
