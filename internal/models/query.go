package models

import "time"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// UserFilters narrows a roster query. All dimensions are optional and
// combine independently.
type UserFilters struct {
	Roles         []UserRole
	Status        UserStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (f UserFilters) Empty() bool {
	return len(f.Roles) == 0 && f.Status == "" && f.CreatedAfter == nil && f.CreatedBefore == nil
}

// UserQuery is the full parameter set of one roster page request.
type UserQuery struct {
	Page    int
	Limit   int
	Search  string
	Filters UserFilters
}

func DefaultQuery() UserQuery {
	return UserQuery{Page: DefaultPage, Limit: DefaultLimit}
}

func (q UserQuery) Equal(other UserQuery) bool {
	if q.Page != other.Page || q.Limit != other.Limit || q.Search != other.Search {
		return false
	}
	if len(q.Filters.Roles) != len(other.Filters.Roles) {
		return false
	}
	for i, role := range q.Filters.Roles {
		if other.Filters.Roles[i] != role {
			return false
		}
	}
	if q.Filters.Status != other.Filters.Status {
		return false
	}
	if !timePtrEqual(q.Filters.CreatedAfter, other.Filters.CreatedAfter) {
		return false
	}
	return timePtrEqual(q.Filters.CreatedBefore, other.Filters.CreatedBefore)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type PageMeta struct {
	CurrentPage     int
	TotalPages      int
	TotalItems      int
	ItemsPerPage    int
	HasNextPage     bool
	HasPreviousPage bool
}

// NewPageMeta derives the full metadata set from page, limit and total,
// keeping the has-next/has-previous flags consistent by construction.
func NewPageMeta(page, limit, total int) PageMeta {
	if limit < 1 {
		limit = 1
	}
	totalPages := (total + limit - 1) / limit
	return PageMeta{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		ItemsPerPage:    limit,
		HasNextPage:     page*limit < total,
		HasPreviousPage: page > 1,
	}
}

type UserPage struct {
	Users []User
	Meta  PageMeta
}
