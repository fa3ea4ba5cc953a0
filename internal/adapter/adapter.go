// Package adapter defines the embedded analytical engine port used to
// register the ride dataset and execute read-only SQL against it.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for opening an engine.
type Config struct {
	// Type specifies the engine type (e.g., "duckdb")
	Type string

	// Path is the database file path. Use ":memory:" for an in-memory engine.
	Path string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column represents a column of a registered table.
type Column struct {
	// Name is the column name
	Name string

	// Type is the engine's data type for the column
	Type string

	// Nullable indicates whether the column allows NULL values
	Nullable bool

	// Position is the ordinal position of the column in the table
	Position int
}

// Metadata holds metadata about a registered table.
type Metadata struct {
	// Name is the table name
	Name string

	// Columns contains metadata for each column
	Columns []Column

	// RowCount is the number of rows in the table
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the narrow port every embedded analytical engine must
// implement. A single table registration is shared read-only by all
// queries; no query mutates the engine handle.
type Adapter interface {
	// Connect opens the engine using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the engine and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// RegisterCSV registers a CSV file under the given table name with
	// inferred schema, replacing any previous registration.
	RegisterCSV(ctx context.Context, tableName string, filePath string) error

	// RegisterParquet registers a Parquet file under the given table name,
	// replacing any previous registration.
	RegisterParquet(ctx context.Context, tableName string, filePath string) error

	// TableMetadata retrieves metadata for a registered table.
	TableMetadata(ctx context.Context, table string) (*Metadata, error)

	// DialectName returns the SQL dialect name for this adapter (e.g., "duckdb").
	DialectName() string
}
