// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// DisplayCategory is the fixed three-way classification used to split the
// catalog into sections. The values are the labels stored in the database.
type DisplayCategory string

const (
	CategoryInfographic DisplayCategory = "Infographic"
	CategoryArticle     DisplayCategory = "บทความ"
	CategoryTechnology  DisplayCategory = "เทคโนโลยี"
)

// Categories lists every display category in menu order.
var Categories = []DisplayCategory{
	CategoryInfographic,
	CategoryArticle,
	CategoryTechnology,
}

// Valid reports whether c is one of the fixed display categories.
func (c DisplayCategory) Valid() bool {
	switch c {
	case CategoryInfographic, CategoryArticle, CategoryTechnology:
		return true
	}
	return false
}

// sections maps public section paths to the category they list.
var sections = map[string]DisplayCategory{
	"infographics": CategoryInfographic,
	"articles":     CategoryArticle,
	"technology":   CategoryTechnology,
}

// CategoryForSection returns the category listed under a section path such
// as "articles". The second result is false for unknown sections.
func CategoryForSection(section string) (DisplayCategory, bool) {
	c, ok := sections[section]
	return c, ok
}
