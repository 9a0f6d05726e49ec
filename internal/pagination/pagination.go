package pagination

// Page wraps a slice of results with paging metadata.
type Page[T any] struct {
	Contents      []T   `json:"contents"`
	CurrentPage   int   `json:"current_page"`
	PerPage       int   `json:"per_page"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int64 `json:"total_pages"`
}

// New builds a Page from an already-sliced result set and the total count.
func New[T any](contents []T, total int64, page, limit int) Page[T] {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	if contents == nil {
		contents = []T{}
	}
	return Page[T]{
		Contents:      contents,
		CurrentPage:   page,
		PerPage:       limit,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// Clamp normalizes page and limit to sane values.
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
