package shared

import "math"

// Pagination carries the metadata block of server-paginated listings, in
// the exact shape the portal's tab scripts consume.
type Pagination struct {
	TotalCount  int  `json:"total_count"`
	CurrentPage int  `json:"current_page"`
	NumPages    int  `json:"num_pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
	StartIndex  int  `json:"start_index"`
	EndIndex    int  `json:"end_index"`
	PerPage     int  `json:"-"`
}

// NewPagination computes pagination metadata for a one-based page.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	numPages := int(math.Ceil(float64(total) / float64(perPage)))
	if numPages < 1 {
		numPages = 1
	}
	if page > numPages {
		page = numPages
	}
	p := Pagination{
		TotalCount:  total,
		CurrentPage: page,
		NumPages:    numPages,
		HasPrevious: page > 1,
		HasNext:     page < numPages,
		PerPage:     perPage,
	}
	if total > 0 {
		p.StartIndex = (page-1)*perPage + 1
		p.EndIndex = page * perPage
		if p.EndIndex > total {
			p.EndIndex = total
		}
	}
	return p
}

// Offset returns the zero-based row offset for SQL queries.
func (p Pagination) Offset() int {
	if p.StartIndex <= 0 {
		return 0
	}
	return p.StartIndex - 1
}
