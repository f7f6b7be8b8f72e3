package domain

// PaginationParams selects one page of a list query. The transport layer is
// responsible for clamping; repositories consume the values as-is.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset is the number of rows to skip for this page. Page numbering starts
// at 1; anything lower reads from the top.
func (p PaginationParams) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
