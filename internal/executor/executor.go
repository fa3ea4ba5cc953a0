// Package executor runs catalog queries against the embedded analytical
// engine, with per-query failure isolation and bounded result
// materialization.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/rideboard/internal/adapter"
	"github.com/leapstack-labs/rideboard/internal/catalog"
)

// DefaultRowLimit bounds how many rows are materialized per execution.
// The limit truncates display and export only; aggregates computed inside
// the query itself see the full dataset.
const DefaultRowLimit = 50

// Status reports whether a query execution succeeded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result is the outcome of one query execution. It is ephemeral: computed
// per request, never cached.
type Result struct {
	Title     string        `json:"title"`
	Status    Status        `json:"status"`
	Columns   []string      `json:"columns,omitempty"`
	Rows      [][]string    `json:"rows,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Err       string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// readOnlyPrefixes are the statement keywords accepted by the executor.
// Anything else is rejected before it reaches the engine: the catalog is
// trusted analytical SQL, but a write slipping through would mutate the
// shared table registration.
var readOnlyPrefixes = []string{
	"SELECT", "WITH", "FROM", "DESCRIBE", "SHOW", "EXPLAIN", "PRAGMA", "SUMMARIZE",
}

// Executor runs queries against one registered table through an engine
// handle. The handle is shared read-only; executions never mutate it.
type Executor struct {
	adapter  adapter.Adapter
	table    string
	rowLimit int
	logger   *slog.Logger
}

// New creates an executor. rowLimit <= 0 selects DefaultRowLimit.
func New(a adapter.Adapter, table string, rowLimit int, logger *slog.Logger) *Executor {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{adapter: a, table: table, rowLimit: rowLimit, logger: logger}
}

// Table returns the registered table name queries run against.
func (e *Executor) Table() string {
	return e.table
}

// Run executes one catalog query. Engine failures are captured in the
// result rather than returned: one query's syntax error must not affect
// the catalog, the registered dataset, or any other query.
func (e *Executor) Run(ctx context.Context, q catalog.Query) Result {
	start := time.Now()

	if err := checkReadOnly(q.SQL); err != nil {
		return e.failure(q, start, err)
	}

	rows, err := e.adapter.Query(ctx, q.SQL)
	if err != nil {
		return e.failure(q, start, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return e.failure(q, start, err)
	}

	result := Result{
		Title:   q.Title,
		Status:  StatusSuccess,
		Columns: cols,
	}

	scan := make([]any, len(cols))
	for rows.Next() {
		if len(result.Rows) >= e.rowLimit {
			result.Truncated = true
			break
		}
		ptrs := make([]any, len(cols))
		for i := range scan {
			ptrs[i] = &scan[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return e.failure(q, start, err)
		}
		row := make([]string, len(cols))
		for i, v := range scan {
			row[i] = formatCell(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return e.failure(q, start, err)
	}

	result.Elapsed = time.Since(start)
	e.logger.Debug("query executed",
		"title", q.Title,
		"rows", len(result.Rows),
		"truncated", result.Truncated,
		"elapsed", result.Elapsed.Round(time.Millisecond))
	return result
}

// failure converts an engine error into a failed result carrying the
// underlying error text verbatim.
func (e *Executor) failure(q catalog.Query, start time.Time, err error) Result {
	e.logger.Warn("query failed", "title", q.Title, "error", err)
	return Result{
		Title:   q.Title,
		Status:  StatusFailure,
		Err:     err.Error(),
		Elapsed: time.Since(start),
	}
}

// checkReadOnly rejects statements whose leading keyword is not on the
// read-only surface.
func checkReadOnly(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	// Skip leading line comments
	for strings.HasPrefix(trimmed, "--") {
		_, rest, found := strings.Cut(trimmed, "\n")
		if !found {
			break
		}
		trimmed = strings.TrimSpace(rest)
	}

	word := trimmed
	if i := strings.IndexFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '(' || r == ';'
	}); i >= 0 {
		word = trimmed[:i]
	}

	upper := strings.ToUpper(word)
	for _, p := range readOnlyPrefixes {
		if upper == p {
			return nil
		}
	}
	return fmt.Errorf("statement %q is not read-only: only %s are allowed",
		word, strings.Join(readOnlyPrefixes, "/"))
}

// formatCell renders a scanned value for display and export.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(c)
	case time.Time:
		return c.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", c)
	}
}
