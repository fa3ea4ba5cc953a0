// Package filter applies categorical include-filters to the ride dataset,
// producing derived read-only views.
package filter

import (
	"github.com/leapstack-labs/rideboard/internal/dataset"
)

// Spec maps a column name to the set of accepted categorical values.
// An empty set means the column is unconstrained.
type Spec map[string][]string

// View is a row subset of a dataset. Row order matches the source dataset.
type View struct {
	ds   *dataset.Dataset
	rows []int
}

// Apply retains the rows whose value for every constrained column is a
// member of that column's accepted set. Filter keys must name existing
// columns; an unknown key is a configuration error, not a silent no-op,
// since filter option sets are derived from the dataset itself.
func Apply(ds *dataset.Dataset, spec Spec) (*View, error) {
	type constraint struct {
		col      int
		accepted map[string]struct{}
	}

	var constraints []constraint
	for name, values := range spec {
		col, ok := ds.Column(name)
		if !ok {
			return nil, &dataset.UnknownColumnError{Column: name}
		}
		if len(values) == 0 {
			continue
		}
		accepted := make(map[string]struct{}, len(values))
		for _, v := range values {
			accepted[v] = struct{}{}
		}
		constraints = append(constraints, constraint{col: col, accepted: accepted})
	}

	rows := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		keep := true
		for _, c := range constraints {
			v := ds.Cell(i, c.col)
			if _, ok := c.accepted[v.Str]; !ok || !v.Valid {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, i)
		}
	}

	return &View{ds: ds, rows: rows}, nil
}

// All returns a view over every row of the dataset.
func All(ds *dataset.Dataset) *View {
	rows := make([]int, ds.Len())
	for i := range rows {
		rows[i] = i
	}
	return &View{ds: ds, rows: rows}
}

// Len returns the number of rows in the view.
func (v *View) Len() int {
	return len(v.rows)
}

// Dataset returns the underlying dataset.
func (v *View) Dataset() *dataset.Dataset {
	return v.ds
}

// Cell returns the value at (view row, dataset column).
func (v *View) Cell(row, col int) dataset.Value {
	return v.ds.Cell(v.rows[row], col)
}

// Column returns the index of a named column in the underlying dataset.
func (v *View) Column(name string) (int, bool) {
	return v.ds.Column(name)
}
