package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/rideboard/internal/executor"
)

// renderRows writes a header and string rows in the requested format.
func renderRows(w io.Writer, cols []string, rows [][]string, format string) error {
	switch format {
	case "json":
		return renderRowsJSON(w, cols, rows)
	case "csv":
		return renderRowsCSV(w, cols, rows)
	case "md", "markdown":
		return renderRowsMarkdown(w, cols, rows)
	default:
		return renderRowsTable(w, cols, rows)
	}
}

func renderRowsTable(w io.Writer, cols []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderRowsJSON(w io.Writer, cols []string, rows [][]string) error {
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]string, len(cols))
		for i, col := range cols {
			if i < len(r) {
				m[col] = r[i]
			}
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderRowsCSV(w io.Writer, cols []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderRowsMarkdown(w io.Writer, cols []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(r, " | "))
	}
	return nil
}

// renderResult writes one query execution outcome. Failures render as an
// error line, not as a fatal fault: the caller decides what to do next.
func renderResult(w io.Writer, result executor.Result, format string) error {
	if result.Status != executor.StatusSuccess {
		_, _ = fmt.Fprintf(w, "Query %q failed: %s\n", result.Title, result.Err)
		return nil
	}
	if err := renderRows(w, result.Columns, result.Rows, format); err != nil {
		return err
	}
	if result.Truncated {
		_, _ = fmt.Fprintln(w, "(output truncated)")
	}
	return nil
}
