package executor

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rideboard/internal/adapter"
	"github.com/leapstack-labs/rideboard/internal/catalog"
	"github.com/leapstack-labs/rideboard/internal/testutil"
)

// stubAdapter routes Query through a sqlmock-backed handle so executor
// behavior can be tested without an engine binary.
type stubAdapter struct {
	db *sql.DB
}

func newStubAdapter(t *testing.T) (*stubAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &stubAdapter{db: db}, mock
}

func (s *stubAdapter) Connect(ctx context.Context, cfg adapter.Config) error { return nil }
func (s *stubAdapter) Close() error                                          { return s.db.Close() }
func (s *stubAdapter) Exec(ctx context.Context, sqlText string) error {
	_, err := s.db.ExecContext(ctx, sqlText)
	return err
}
func (s *stubAdapter) Query(ctx context.Context, sqlText string) (*adapter.Rows, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	return &adapter.Rows{Rows: rows}, nil
}
func (s *stubAdapter) RegisterCSV(ctx context.Context, table, path string) error {
	return errors.New("not supported")
}
func (s *stubAdapter) RegisterParquet(ctx context.Context, table, path string) error {
	return errors.New("not supported")
}
func (s *stubAdapter) TableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return nil, errors.New("not supported")
}
func (s *stubAdapter) DialectName() string { return "mock" }

func TestRun_Success(t *testing.T) {
	stub, mock := newStubAdapter(t)
	query := "SELECT vehicle_type, SUM(total_amount) AS total FROM rides GROUP BY 1"
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
		sqlmock.NewRows([]string{"vehicle_type", "total"}).
			AddRow("SUV", 120.5).
			AddRow("Bike", nil))

	e := New(stub, "rides", 0, testutil.NewTestLogger(t))
	result := e.Run(context.Background(), catalog.Query{Title: "Revenue by Vehicle", SQL: query})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "Revenue by Vehicle", result.Title)
	assert.Equal(t, []string{"vehicle_type", "total"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"SUV", "120.5"}, result.Rows[0])
	assert.Equal(t, []string{"Bike", ""}, result.Rows[1], "NULL cells render as empty strings")
	assert.False(t, result.Truncated)
	assert.Empty(t, result.Err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_RowLimitTruncates(t *testing.T) {
	stub, mock := newStubAdapter(t)
	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 5; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("SELECT n FROM rides").WillReturnRows(rows)

	e := New(stub, "rides", 2, testutil.NewTestLogger(t))
	result := e.Run(context.Background(), catalog.Query{Title: "All", SQL: "SELECT n FROM rides"})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Truncated)
}

func TestRun_FailureIsolation(t *testing.T) {
	stub, mock := newStubAdapter(t)
	engineErr := errors.New(`Catalog Error: Table with name "ridess" does not exist!`)
	mock.ExpectQuery("SELECT \\* FROM ridess").WillReturnError(engineErr)
	mock.ExpectQuery("SELECT 1").WillReturnRows(
		sqlmock.NewRows([]string{"1"}).AddRow(1))

	e := New(stub, "rides", 0, testutil.NewTestLogger(t))

	failed := e.Run(context.Background(), catalog.Query{Title: "Broken", SQL: "SELECT * FROM ridess"})
	assert.Equal(t, StatusFailure, failed.Status)
	assert.Equal(t, engineErr.Error(), failed.Err, "engine error text is surfaced verbatim")
	assert.Empty(t, failed.Rows)

	// The failure must not poison the executor for later queries.
	ok := e.Run(context.Background(), catalog.Query{Title: "Probe", SQL: "SELECT 1"})
	assert.Equal(t, StatusSuccess, ok.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_RejectsWrites(t *testing.T) {
	stub, mock := newStubAdapter(t)
	e := New(stub, "rides", 0, testutil.NewTestLogger(t))

	for _, sqlText := range []string{
		"DROP TABLE rides",
		"INSERT INTO rides VALUES (1)",
		"UPDATE rides SET total_amount = 0",
		"-- looks harmless\nDELETE FROM rides",
		"CREATE TABLE x (id INT)",
	} {
		result := e.Run(context.Background(), catalog.Query{Title: "Write", SQL: sqlText})
		assert.Equal(t, StatusFailure, result.Status, "statement %q must be rejected", sqlText)
		assert.Contains(t, result.Err, "not read-only")
	}

	// Rejected statements never reach the engine.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckReadOnly(t *testing.T) {
	accepted := []string{
		"SELECT 1",
		"select count(*) from rides",
		"  WITH t AS (SELECT 1) SELECT * FROM t",
		"FROM rides SELECT vehicle_type",
		"DESCRIBE rides",
		"SHOW TABLES",
		"EXPLAIN SELECT 1",
		"PRAGMA database_size",
		"SUMMARIZE rides",
		"-- revenue per method\nSELECT payment_method FROM rides",
		"SELECT;",
		"SELECT(1)",
	}
	for _, sqlText := range accepted {
		assert.NoError(t, checkReadOnly(sqlText), "statement %q", sqlText)
	}

	rejected := []string{
		"DROP TABLE rides",
		"ATTACH 'other.db'",
		"COPY rides TO 'out.csv'",
		"SET threads = 1",
		"SELECTX 1",
		"",
	}
	for _, sqlText := range rejected {
		assert.Error(t, checkReadOnly(sqlText), "statement %q", sqlText)
	}
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "hello", formatCell([]byte("hello")))
	assert.Equal(t, "42", formatCell(int64(42)))
	assert.Equal(t, "3.14", formatCell(3.14))
	assert.Equal(t, "true", formatCell(true))
}
