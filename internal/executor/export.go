package executor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteCSV serializes the materialized rows as comma-separated values with
// a header row. Column names and values round-trip exactly as materialized.
func (r Result) WriteCSV(w io.Writer) error {
	if r.Status != StatusSuccess {
		return fmt.Errorf("cannot export failed query %q: %s", r.Title, r.Err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range r.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename derives a download filename from a query title, replacing
// anything outside [A-Za-z0-9_-] with underscores.
func ExportFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "query"
	}
	return name + ".csv"
}
