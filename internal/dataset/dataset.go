// Package dataset provides the immutable in-memory ride dataset shared by
// the filter and metrics engines.
package dataset

import (
	"fmt"
	"sort"
	"time"
)

// Required column names in the ride dataset.
const (
	ColVehicleType    = "vehicle_type"
	ColPaymentMethod  = "payment_method"
	ColIsCompleted    = "is_completed"
	ColTotalAmount    = "total_amount"
	ColDistanceKM     = "distance_km"
	ColCustomerRating = "customer_rating"
	ColRideDate       = "ride_date"
)

// Kind is the semantic type of a column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	}
	return "unknown"
}

// Column describes one column of the dataset schema.
type Column struct {
	Name string
	Kind Kind
}

// Value is a single cell. Valid is false for NULL cells. Str always holds
// the display form of a valid cell; the typed fields are set according to
// the column kind.
type Value struct {
	Valid bool
	Str   string
	Num   float64
	Bool  bool
	Time  time.Time
}

// String returns the display form of the cell, empty for NULL.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.Str
}

// Dataset is an ordered set of named, typed columns with row-major values.
// It is never mutated after construction.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// New builds a dataset from a schema and rows. Each row must have exactly
// one cell per column.
func New(columns []Column, rows [][]Value) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		index[c.Name] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	return &Dataset{columns: columns, index: index, rows: rows}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Columns returns the ordered schema.
func (d *Dataset) Columns() []Column {
	return d.columns
}

// Column returns the index of a named column.
func (d *Dataset) Column(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Cell returns the value at (row, col).
func (d *Dataset) Cell(row, col int) Value {
	return d.rows[row][col]
}

// UnknownColumnError reports a reference to a column absent from the schema.
// It indicates a configuration mismatch and is fatal to the operation.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown dataset column %q", e.Column)
}

// Distinct returns the sorted distinct non-null values of a categorical
// column. Used to build filter option sets.
func (d *Dataset) Distinct(name string) ([]string, error) {
	col, ok := d.index[name]
	if !ok {
		return nil, &UnknownColumnError{Column: name}
	}
	seen := make(map[string]struct{})
	for _, r := range d.rows {
		if v := r[col]; v.Valid {
			seen[v.Str] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// RequiredColumns lists the columns the ride schema must provide.
func RequiredColumns() []string {
	return []string{
		ColVehicleType,
		ColPaymentMethod,
		ColIsCompleted,
		ColTotalAmount,
		ColDistanceKM,
		ColCustomerRating,
		ColRideDate,
	}
}

// Validate checks that all required ride columns are present.
func (d *Dataset) Validate() error {
	for _, name := range RequiredColumns() {
		if _, ok := d.index[name]; !ok {
			return &UnknownColumnError{Column: name}
		}
	}
	return nil
}
