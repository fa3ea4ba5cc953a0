package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnected(t *testing.T) *DuckDBAdapter {
	t.Helper()
	a := NewDuckDBAdapter()
	require.NoError(t, a.Connect(context.Background(), Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeRidesCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rides.csv")
	content := `vehicle_type,payment_method,is_completed,total_amount,distance_km,customer_rating,ride_date
SUV,Card,true,100.5,10.2,4.5,2024-01-01
Bike,Cash,true,40.0,5.0,4.0,2024-01-02
SUV,UPI,false,0,0,,2024-01-02
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDuckDBAdapter_Connect(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "in-memory",
			path: func(_ *testing.T) string { return ":memory:" },
		},
		{
			name: "file-based",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewDuckDBAdapter()
			require.NoError(t, a.Connect(context.Background(), Config{Path: tt.path(t)}))
			assert.NoError(t, a.Close())
		})
	}
}

func TestDuckDBAdapter_NotConnected(t *testing.T) {
	a := NewDuckDBAdapter()
	ctx := context.Background()

	assert.Error(t, a.Exec(ctx, "SELECT 1"))
	_, err := a.Query(ctx, "SELECT 1")
	assert.Error(t, err)
	_, err = a.TableMetadata(ctx, "rides")
	assert.Error(t, err)
	assert.NoError(t, a.Close(), "closing an unconnected adapter is a no-op")
}

func TestDuckDBAdapter_Query(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	rows, err := a.Query(ctx, "SELECT 1 AS n, 'x' AS s")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "s"}, cols)
	assert.True(t, rows.Next())
}

func TestDuckDBAdapter_RegisterCSV(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.RegisterCSV(ctx, "rides", writeRidesCSV(t)))

	rows, err := a.Query(ctx, "SELECT COUNT(*) FROM rides")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var count int64
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, int64(3), count)
}

func TestDuckDBAdapter_RegisterCSV_Replaces(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()
	path := writeRidesCSV(t)

	require.NoError(t, a.RegisterCSV(ctx, "rides", path))
	require.NoError(t, a.RegisterCSV(ctx, "rides", path), "re-registration replaces the table")
}

func TestDuckDBAdapter_RegisterCSV_MissingFile(t *testing.T) {
	a := newConnected(t)

	err := a.RegisterCSV(context.Background(), "rides", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestDuckDBAdapter_TableMetadata(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.RegisterCSV(ctx, "rides", writeRidesCSV(t)))

	meta, err := a.TableMetadata(ctx, "rides")
	require.NoError(t, err)
	assert.Equal(t, "rides", meta.Name)
	assert.Equal(t, int64(3), meta.RowCount)
	require.Len(t, meta.Columns, 7)
	assert.Equal(t, "vehicle_type", meta.Columns[0].Name)
	assert.Equal(t, 1, meta.Columns[0].Position)
}

func TestDuckDBAdapter_TableMetadata_Unknown(t *testing.T) {
	a := newConnected(t)

	_, err := a.TableMetadata(context.Background(), "missing_table")
	assert.Error(t, err)
}

func TestDuckDBAdapter_DialectName(t *testing.T) {
	assert.Equal(t, "duckdb", NewDuckDBAdapter().DialectName())
}
