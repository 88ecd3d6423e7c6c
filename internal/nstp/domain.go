// Package nstp manages National Service Training Program file records:
// per-student serial numbers grouped by component, school year and
// semester. Upload mechanics live elsewhere; this module owns the
// searchable metadata the NSTP tab lists and edits.
package nstp

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the file record does not exist.
	ErrNotFound = errors.New("nstp file not found")
	// ErrNotArchived indicates a retrieve on a record that is not archived.
	ErrNotArchived = errors.New("nstp file is not archived")
)

// File is one NSTP file record.
type File struct {
	ID         int64      `json:"id"`
	Student    string     `json:"student"`
	Component  string     `json:"component"`
	SchoolYear string     `json:"school_year"`
	Semester   string     `json:"semester"`
	FileName   string     `json:"file_name"`
	Status     string     `json:"status"`
	UploadedAt time.Time  `json:"uploaded_at"`
	ArchivedAt *time.Time `json:"archived_at"`
}

// ListFilters narrows the NSTP file listing.
type ListFilters struct {
	Search     string
	Component  string
	SchoolYear string
	Page       int
	PerPage    int
}

// EditInput carries the editable metadata of a file record.
type EditInput struct {
	Student    string `json:"student" validate:"required,min=2,max=120"`
	Component  string `json:"component" validate:"required,oneof=CWTS LTS ROTC"`
	SchoolYear string `json:"school_year" validate:"required,len=9"`
	Semester   string `json:"semester" validate:"required,oneof=1st 2nd"`
}
