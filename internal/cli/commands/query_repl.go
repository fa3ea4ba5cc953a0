package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/catalog"
)

func runQueryREPL(cmd *cobra.Command, cc *CommandContext, format string) error {
	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rideboard> ",
		HistoryFile:     ".rideboard_history",
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rideboard SQL REPL (table: %s)\n", cc.Executor.Table())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("rideboard> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") && multiLineBuffer.Len() == 0 {
			if line == ".quit" || line == ".exit" {
				break
			}
			if handleDotCommand(ctx, cmd, cc, line, format) {
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("      ...> ")
			continue
		}
		rl.SetPrompt("rideboard> ")

		sqlText := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		result := cc.Executor.Run(ctx, catalog.Query{Title: "repl", SQL: sqlText})
		if err := renderResult(cmd.OutOrStdout(), result, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand processes REPL meta commands. Returns true if handled.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, cc *CommandContext, line, format string) bool {
	switch line {
	case ".help":
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), `Commands:
  .help      Show this help
  .table     Show the registered table's schema
  .columns   List dataset columns and kinds
  .quit      Exit the REPL

End SQL statements with a semicolon; statements may span lines.`)
		return true
	case ".table":
		meta, err := cc.Adapter.TableMetadata(ctx, cc.Executor.Table())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		cols := []string{"column", "type", "nullable"}
		rows := make([][]string, len(meta.Columns))
		for i, c := range meta.Columns {
			rows[i] = []string{c.Name, c.Type, fmt.Sprintf("%t", c.Nullable)}
		}
		_ = renderRows(cmd.OutOrStdout(), cols, rows, format)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rows in %s\n", meta.RowCount, meta.Name)
		return true
	case ".columns":
		cols := []string{"column", "kind"}
		var rows [][]string
		for _, c := range cc.Dataset.Columns() {
			rows = append(rows, []string{c.Name, c.Kind.String()})
		}
		_ = renderRows(cmd.OutOrStdout(), cols, rows, format)
		return true
	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command %s (try .help)\n", line)
		return true
	}
}
