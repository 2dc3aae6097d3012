package catalog

import (
	"strings"

	"kasetinfo/internal/models"
)

// Filter selects items from the catalog. The zero value matches
// everything. All set criteria must hold for an item to match.
type Filter struct {
	// Query is matched case-insensitively as a substring of the title,
	// summary, or content. Empty matches every item.
	Query string
	// Tag is matched exactly against the item's tags. Empty or
	// models.AllTags disables tag filtering.
	Tag string
	// Category restricts results to one display category when non-nil.
	Category *models.DisplayCategory
}

// Matches reports whether a single item satisfies every criterion.
func (f Filter) Matches(it *models.Item) bool {
	return matchCategory(it, f.Category) &&
		matchQuery(it, strings.ToLower(f.Query)) &&
		matchTag(it, f.Tag)
}

// Apply returns the matching items in their original order. The result is
// never nil.
func (f Filter) Apply(items []models.Item) []models.Item {
	q := strings.ToLower(f.Query)
	out := make([]models.Item, 0, len(items))
	for i := range items {
		it := &items[i]
		if matchCategory(it, f.Category) && matchQuery(it, q) && matchTag(it, f.Tag) {
			out = append(out, *it)
		}
	}
	return out
}

// ByCategory keeps items of the given category. A nil category keeps all.
func ByCategory(items []models.Item, c *models.DisplayCategory) []models.Item {
	return Filter{Category: c}.Apply(items)
}

// ByQuery keeps items whose title, summary, or content contain q,
// ignoring case.
func ByQuery(items []models.Item, q string) []models.Item {
	return Filter{Query: q}.Apply(items)
}

// ByTag keeps items carrying tag. models.AllTags keeps all.
func ByTag(items []models.Item, tag string) []models.Item {
	return Filter{Tag: tag}.Apply(items)
}

// TagFacets lists the tag choices for a category: the AllTags sentinel
// first, then each distinct tag of the category's items in order of first
// appearance. Search and tag selection do not narrow the facets.
func TagFacets(items []models.Item, c *models.DisplayCategory) []string {
	facets := []string{models.AllTags}
	seen := map[string]bool{models.AllTags: true}
	for i := range items {
		if !matchCategory(&items[i], c) {
			continue
		}
		for _, tag := range items[i].Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			facets = append(facets, tag)
		}
	}
	return facets
}

func matchCategory(it *models.Item, c *models.DisplayCategory) bool {
	return c == nil || it.DisplayCategory == *c
}

// matchQuery expects q already lowercased.
func matchQuery(it *models.Item, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Title), q) ||
		strings.Contains(strings.ToLower(it.Summary), q) ||
		strings.Contains(strings.ToLower(it.Content), q)
}

func matchTag(it *models.Item, tag string) bool {
	if tag == "" || tag == models.AllTags {
		return true
	}
	return it.HasTag(tag)
}
