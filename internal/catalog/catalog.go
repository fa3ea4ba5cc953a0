// Package catalog parses the plain-text catalog of named analytical
// queries. Each entry starts with a "-- " marker line holding the title;
// everything up to the next marker is the SQL body.
package catalog

import (
	"fmt"
	"os"
	"strings"
)

// Delimiter marks the start of a catalog entry at the beginning of a line.
const Delimiter = "-- "

// Query is one named catalog entry. Titles are not required to be unique;
// duplicates coexist as separate entries.
type Query struct {
	Title string
	SQL   string
}

// MalformedEntryError reports a catalog segment that has a title but no
// body. Catalog integrity is a precondition: the whole parse fails rather
// than loading a partial catalog.
type MalformedEntryError struct {
	Index int    // zero-based entry position in the document
	Title string // title line of the offending segment, trimmed
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("catalog entry %d (%q): missing query body", e.Index, e.Title)
}

// Parse splits catalog text into its ordered query definitions. Text
// before the first delimiter is preamble and is discarded. Parsing is
// idempotent: identical input yields an identical sequence.
func Parse(text string) ([]Query, error) {
	segments := split(text)

	queries := make([]Query, 0, len(segments))
	for i, seg := range segments {
		title, body, found := strings.Cut(seg, "\n")
		title = strings.TrimSpace(title)
		body = strings.TrimSpace(body)
		if !found || body == "" {
			return nil, &MalformedEntryError{Index: i, Title: title}
		}
		queries = append(queries, Query{Title: title, SQL: body})
	}
	return queries, nil
}

// split segments the document on delimiter tokens at line starts,
// dropping the preamble before the first delimiter.
func split(text string) []string {
	var segments []string
	rest := text

	// A delimiter at the very start of the document opens the first entry.
	if strings.HasPrefix(rest, Delimiter) {
		rest = rest[len(Delimiter):]
	} else if idx := strings.Index(rest, "\n"+Delimiter); idx >= 0 {
		rest = rest[idx+1+len(Delimiter):]
	} else {
		return nil
	}

	for {
		idx := strings.Index(rest, "\n"+Delimiter)
		if idx < 0 {
			segments = append(segments, rest)
			return segments
		}
		segments = append(segments, rest[:idx])
		rest = rest[idx+1+len(Delimiter):]
	}
}

// Load reads and parses a catalog file.
func Load(path string) ([]Query, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	queries, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return queries, nil
}
