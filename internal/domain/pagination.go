package domain

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// HasMore reports whether rows remain past the current page, given the number
// of items on the page and the filtered total.
func (p PaginationParams) HasMore(pageLen, total int) bool {
	return p.Offset()+pageLen < total
}
