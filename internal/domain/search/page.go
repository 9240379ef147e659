package search

// PageBounds describes one page of a result set.
type PageBounds struct {
	Page       int
	Limit      int
	TotalPages int
	Start, End int // slice bounds into the full result
}

// Bounds computes the slice bounds of page (1-based) of size limit over total items.
// Pages past the end yield an empty range.
func Bounds(total, page, limit int) PageBounds {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	b := PageBounds{Page: page, Limit: limit, TotalPages: (total + limit - 1) / limit}
	b.Start = min((page-1)*limit, total)
	b.End = min(b.Start+limit, total)
	return b
}

// Paginate returns the items on the given page.
func Paginate[T any](items []T, page, limit int) ([]T, PageBounds) {
	b := Bounds(len(items), page, limit)
	return items[b.Start:b.End], b
}
