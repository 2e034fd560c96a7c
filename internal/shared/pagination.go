package shared

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Page bounds a listing query.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPage clamps limit and offset to sane values.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// List wraps a page of results for JSON responses. NextOffset is set when the
// page came back full, so clients know to ask for the following page.
type List[T any] struct {
	Items      []T  `json:"items"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	NextOffset *int `json:"next_offset"`
}

// NewList builds a List, never returning a nil slice.
func NewList[T any](items []T, page Page) List[T] {
	if items == nil {
		items = []T{}
	}
	list := List[T]{Items: items, Limit: page.Limit, Offset: page.Offset}
	if page.Limit > 0 && len(items) >= page.Limit {
		next := page.Offset + page.Limit
		list.NextOffset = &next
	}
	return list
}
