package models

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	TotalPages int
}

// Normalize page number and limit the way listing endpoints accept them
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Page[T]{Items: items, Total: total, Page: page, TotalPages: pages}
}
