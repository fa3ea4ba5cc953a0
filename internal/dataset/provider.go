package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/rideboard/internal/adapter"
)

// Provider loads the dataset once through the analytical engine and hands
// out the same immutable handle for the rest of the process lifetime.
type Provider struct {
	adapter adapter.Adapter
	table   string
	path    string
	logger  *slog.Logger

	once sync.Once
	ds   *Dataset
	err  error
}

// NewProvider creates a provider that registers the file at path under the
// given table name on first access.
func NewProvider(a adapter.Adapter, table, path string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{adapter: a, table: table, path: path, logger: logger}
}

// Get returns the loaded dataset, loading it on first call. Subsequent
// calls return the same handle (or the same load error).
func (p *Provider) Get(ctx context.Context) (*Dataset, error) {
	p.once.Do(func() {
		start := time.Now()
		p.ds, p.err = p.load(ctx)
		if p.err == nil {
			p.logger.Info("dataset loaded",
				"table", p.table,
				"rows", p.ds.Len(),
				"elapsed", time.Since(start).Round(time.Millisecond))
		}
	})
	return p.ds, p.err
}

func (p *Provider) load(ctx context.Context) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(p.path)); ext {
	case ".parquet":
		if err := p.adapter.RegisterParquet(ctx, p.table, p.path); err != nil {
			return nil, err
		}
	case ".csv":
		if err := p.adapter.RegisterCSV(ctx, p.table, p.path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported dataset file type %q (want .csv or .parquet)", ext)
	}

	ds, err := Materialize(ctx, p.adapter, p.table)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p.path, err)
	}
	return ds, nil
}

// Materialize reads an entire registered table into an in-memory Dataset.
func Materialize(ctx context.Context, a adapter.Adapter, table string) (*Dataset, error) {
	rows, err := a.Query(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Kind: kindForDBType(types[i].DatabaseTypeName())}
	}

	var data [][]Value
	scan := make([]any, len(names))
	for rows.Next() {
		ptrs := make([]any, len(names))
		for i := range scan {
			ptrs[i] = &scan[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]Value, len(names))
		for i := range scan {
			row[i] = toValue(scan[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table %s: %w", table, err)
	}

	return New(columns, data)
}

// kindForDBType maps an engine type name to a dataset column kind.
func kindForDBType(dbType string) Kind {
	switch t := strings.ToUpper(dbType); {
	case strings.Contains(t, "BOOL"):
		return KindBool
	case strings.Contains(t, "INT"),
		strings.Contains(t, "DOUBLE"),
		strings.Contains(t, "FLOAT"),
		strings.Contains(t, "DECIMAL"),
		strings.Contains(t, "NUMERIC"),
		strings.Contains(t, "REAL"):
		return KindFloat
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIMESTAMP"):
		return KindTime
	default:
		return KindString
	}
}

// toValue converts a scanned database value into a dataset cell.
func toValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case bool:
		return Value{Valid: true, Bool: v, Str: strconv.FormatBool(v)}
	case int64:
		return Value{Valid: true, Num: float64(v), Str: strconv.FormatInt(v, 10)}
	case int32:
		return Value{Valid: true, Num: float64(v), Str: strconv.FormatInt(int64(v), 10)}
	case float64:
		return Value{Valid: true, Num: v, Str: strconv.FormatFloat(v, 'f', -1, 64)}
	case float32:
		return Value{Valid: true, Num: float64(v), Str: strconv.FormatFloat(float64(v), 'f', -1, 32)}
	case time.Time:
		return Value{Valid: true, Time: v, Str: v.Format("2006-01-02 15:04:05")}
	case []byte:
		return Value{Valid: true, Str: string(v)}
	case string:
		return Value{Valid: true, Str: v}
	default:
		return Value{Valid: true, Str: fmt.Sprintf("%v", v)}
	}
}
