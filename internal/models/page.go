package models

// Pagination is the cursor block of a paginated response.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems,omitempty"`
	Limit       int `json:"limit,omitempty"`
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// HasPrev reports whether a page before the current one exists.
func (p Pagination) HasPrev() bool {
	return p.CurrentPage > 1
}

// Page is the {items, pagination, stats} envelope shared by list endpoints.
type Page[T any, S any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
	Stats      S          `json:"stats"`
}

// Normalize fills pagination fields a sparse backend left out.
func (p *Page[T, S]) Normalize(requestedPage int) {
	if p.Items == nil {
		p.Items = []T{}
	}
	if p.Pagination.CurrentPage == 0 {
		p.Pagination.CurrentPage = requestedPage
		if p.Pagination.CurrentPage == 0 {
			p.Pagination.CurrentPage = 1
		}
	}
	if p.Pagination.TotalPages < p.Pagination.CurrentPage && len(p.Items) > 0 {
		p.Pagination.TotalPages = p.Pagination.CurrentPage
	}
}
