package catalog

// TotalPages returns the page count for n items. A pageSize of zero or
// less means no pagination, which is always a single page. There is at
// least one page even when n is zero.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the items on a 1-based page together with the total
// page count. With pageSize zero or less the whole sequence is returned.
// Pages outside 1..totalPages yield an empty slice; callers clamp.
func Paginate[T any](items []T, page, pageSize int) ([]T, int) {
	total := TotalPages(len(items), pageSize)
	if pageSize <= 0 {
		return items, total
	}
	if page < 1 {
		return []T{}, total
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}, total
	}
	end := min(start+pageSize, len(items))
	return items[start:end], total
}

// Pager is the page control state. Page is 1-based and stays within
// 1..TotalPages once clamped.
type Pager struct {
	Page       int
	TotalPages int
}

// NewPager returns a pager on page 1 of a single page.
func NewPager() Pager {
	return Pager{Page: 1, TotalPages: 1}
}

// Prev moves one page back, stopping at the first page.
func (p *Pager) Prev() {
	p.Page = max(1, p.Page-1)
}

// Next moves one page forward, stopping at the last page.
func (p *Pager) Next() {
	p.Page = min(max(1, p.TotalPages), p.Page+1)
}

// Reset returns to the first page.
func (p *Pager) Reset() {
	p.Page = 1
}

// Clamp sets the page count and pulls Page back into range.
func (p *Pager) Clamp(totalPages int) {
	p.TotalPages = max(1, totalPages)
	p.Page = min(max(1, p.Page), p.TotalPages)
}

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Pager) HasNext() bool { return p.Page < p.TotalPages }
