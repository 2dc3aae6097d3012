package catalog

import "kasetinfo/internal/models"

// Page is one rendered list page.
type Page struct {
	Items      []models.Item
	Tags       []string
	Page       int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
}

// View is the list view model shared by every section listing. It holds
// the filter inputs and the page control, and resets to page 1 whenever a
// filter input changes or the catalog it renders from has changed since
// the last render.
type View struct {
	filter   Filter
	pageSize int
	pager    Pager

	version uint64
	synced  bool
}

// NewView creates a view restricted to category (nil for all categories)
// with the given page size (zero or less for a single unpaginated page).
func NewView(category *models.DisplayCategory, pageSize int) *View {
	return &View{
		filter:   Filter{Category: category, Tag: models.AllTags},
		pageSize: pageSize,
		pager:    NewPager(),
	}
}

// Filter returns the current filter inputs.
func (v *View) Filter() Filter { return v.filter }

// CurrentPage returns the current 1-based page.
func (v *View) CurrentPage() int { return v.pager.Page }

// SetQuery changes the search text. A change resets the page.
func (v *View) SetQuery(q string) {
	if q != v.filter.Query {
		v.filter.Query = q
		v.pager.Reset()
	}
}

// SetTag changes the selected tag. Empty selects models.AllTags. A change
// resets the page.
func (v *View) SetTag(tag string) {
	if tag == "" {
		tag = models.AllTags
	}
	if tag != v.filter.Tag {
		v.filter.Tag = tag
		v.pager.Reset()
	}
}

// SetCategory changes the category restriction. A change resets the page.
func (v *View) SetCategory(c *models.DisplayCategory) {
	if !sameCategory(c, v.filter.Category) {
		v.filter.Category = c
		v.pager.Reset()
	}
}

// GoTo jumps to a page. Render clamps it into range.
func (v *View) GoTo(page int) { v.pager.Page = page }

// Prev moves one page back.
func (v *View) Prev() { v.pager.Prev() }

// Next moves one page forward.
func (v *View) Next() { v.pager.Next() }

// Render applies the filter and page to a catalog snapshot. If the catalog
// changed since the previous render the page resets to 1 first.
func (v *View) Render(s State) Page {
	if v.synced && s.Version != v.version {
		v.pager.Reset()
	}
	v.version = s.Version
	v.synced = true

	filtered := v.filter.Apply(s.Items)
	v.pager.Clamp(TotalPages(len(filtered), v.pageSize))
	items, _ := Paginate(filtered, v.pager.Page, v.pageSize)

	return Page{
		Items:      items,
		Tags:       TagFacets(s.Items, v.filter.Category),
		Page:       v.pager.Page,
		TotalPages: v.pager.TotalPages,
		Total:      len(filtered),
		HasPrev:    v.pager.HasPrev(),
		HasNext:    v.pager.HasNext(),
	}
}

func sameCategory(a, b *models.DisplayCategory) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
