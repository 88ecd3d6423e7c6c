// Package views declares every in-page entity tab once, as data: which
// table backs it, which columns are filterable, which of those free-text
// search scans, and which column carries the tab's date. One generic
// handler drives all of them through the listing engine, replacing the
// per-tab filter functions the portal used to duplicate.
package views

import (
	"fmt"
	"time"

	"github.com/campuslink/campuslink/internal/listing"
)

// TabDef declares one entity tab.
type TabDef struct {
	Name       string
	Table      string
	Columns    []string
	Searchable []string
	DateColumn string
}

// Tabs is the portal's tab registry. Adding a tab here is all it takes to
// give it search, discrete filters, date buckets and newest/oldest sort.
var Tabs = []TabDef{
	{
		Name:       "users",
		Table:      "portal_users",
		Columns:    []string{"name", "email", "role", "status"},
		Searchable: []string{"name", "email"},
		DateColumn: "created_at",
	},
	{
		Name:       "announcements",
		Table:      "announcements",
		Columns:    []string{"title", "audience", "status"},
		Searchable: []string{"title"},
		DateColumn: "posted_at",
	},
	{
		Name:       "scholarships",
		Table:      "scholarships",
		Columns:    []string{"name", "sponsor", "status"},
		Searchable: []string{"name", "sponsor"},
		DateColumn: "created_at",
	},
	{
		Name:       "admissions",
		Table:      "admission_applications",
		Columns:    []string{"applicant", "program", "status"},
		Searchable: []string{"applicant"},
		DateColumn: "applied_at",
	},
	{
		Name:       "complaints",
		Table:      "complaints",
		Columns:    []string{"complainant", "category", "status"},
		Searchable: []string{"complainant"},
		DateColumn: "filed_at",
	},
	{
		Name:       "ojt-companies",
		Table:      "ojt_companies",
		Columns:    []string{"company", "industry", "status"},
		Searchable: []string{"company"},
		DateColumn: "accredited_at",
	},
	{
		Name:       "accomplishment-reports",
		Table:      "accomplishment_reports",
		Columns:    []string{"organization", "period", "status"},
		Searchable: []string{"organization"},
		DateColumn: "submitted_at",
	},
}

// Find returns the tab definition by name.
func Find(name string) (TabDef, error) {
	for _, tab := range Tabs {
		if tab.Name == name {
			return tab, nil
		}
	}
	return TabDef{}, fmt.Errorf("unknown tab %s", name)
}

// Config builds the listing view configuration for the tab.
func (t TabDef) Config() listing.ViewConfig {
	fields := make(map[string]listing.Accessor, len(t.Columns))
	for _, column := range t.Columns {
		fields[column] = listing.FieldAccessor(column)
	}
	return listing.ViewConfig{
		Fields:     fields,
		Searchable: append([]string(nil), t.Searchable...),
		Date:       func(r listing.Record) time.Time { return r.Date },
	}
}

// StateFromQuery builds the tab's view state from listing query values.
func (t TabDef) StateFromQuery(get func(string) string) listing.ViewState {
	state := listing.ViewState{
		Criteria: make(map[string]string, len(t.Columns)),
		Search:   get("search"),
		DateMode: listing.ParseDateMode(get("date")),
		Page:     1,
	}
	for _, column := range t.Columns {
		if value := get(column); value != "" {
			state.Criteria[column] = value
		}
	}
	return state
}
