// Package organizations manages student organization records and their
// recognition lifecycle: pending applications are approved, active
// organizations renew their recognition yearly, lapsed or closed ones are
// archived and can later be reactivated.
package organizations

import (
	"errors"
	"time"
)

// Status is an organization's lifecycle phase.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var (
	// ErrNotFound indicates the organization does not exist.
	ErrNotFound = errors.New("organization not found")
	// ErrDuplicate indicates another organization already uses the name.
	ErrDuplicate = errors.New("organization name already taken")
	// ErrInvalidTransition indicates the requested lifecycle operation is
	// not allowed from the organization's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Organization is one student organization record.
type Organization struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Acronym      string     `json:"acronym"`
	Category     string     `json:"category"`
	Adviser      string     `json:"adviser"`
	Status       Status     `json:"status"`
	RecognizedAt *time.Time `json:"recognized_at"`
	RenewedAt    *time.Time `json:"renewed_at"`
	ArchivedAt   *time.Time `json:"archived_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ListFilters narrows the organization listing.
type ListFilters struct {
	Search   string
	Category string
	Status   string
	Page     int
	PerPage  int
}

// CreateInput carries a new organization application.
type CreateInput struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Acronym  string `json:"acronym" validate:"required,min=2,max=16"`
	Category string `json:"category" validate:"required,oneof=academic non_academic religious sports civic"`
	Adviser  string `json:"adviser" validate:"required,min=2,max=120"`
}

// EditInput carries editable organization fields.
type EditInput struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Acronym  string `json:"acronym" validate:"required,min=2,max=16"`
	Category string `json:"category" validate:"required,oneof=academic non_academic religious sports civic"`
	Adviser  string `json:"adviser" validate:"required,min=2,max=120"`
}
