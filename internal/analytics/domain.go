// Package analytics records who did what to which record, and exports
// the activity feed as CSV for the admin reports page.
package analytics

import "time"

// Activity is one entry in the activity feed.
type Activity struct {
	ID         int64     `json:"id"`
	Actor      string    `json:"actor"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExportFilters narrows the exported window.
type ExportFilters struct {
	From       time.Time
	To         time.Time
	EntityType string
}
