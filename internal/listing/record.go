// Package listing implements the shared filter/sort engine behind the
// portal's entity tabs. Each tab registers a view describing how to read
// its records; the engine computes the visible, ordered subset for the
// tab's current search, filter and date selections.
package listing

import (
	"strings"
	"time"
)

// Record is one row of an entity tab, ingested once from its source into
// typed fields. The engine only ever reads records; it never mutates them.
type Record struct {
	ID     string
	Fields map[string]string
	// Date backs bucket filtering and newest/oldest sorting. The zero
	// value is the sentinel for a missing or unparseable source date: it
	// sorts as oldest and fails every bucket filter.
	Date time.Time
}

// Field returns the named field, or empty when the record does not carry it.
func (r Record) Field(name string) string {
	return r.Fields[name]
}

var recordDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan. 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
}

// ParseRecordDate converts a source date string into a record timestamp.
// Unparseable input yields the zero sentinel, never an error: ingestion
// must not fail a whole tab over one bad cell.
func ParseRecordDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
