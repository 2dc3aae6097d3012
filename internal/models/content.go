// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AllTags is the tag selector value that disables tag filtering. It is
// always the first entry of a tag facet list.
const AllTags = "ทั้งหมด"

// PlaceholderImageURL is shown in place of an item image when none is set.
const PlaceholderImageURL = "https://picsum.photos/600/400?grayscale"

// Item is one catalog entry: an infographic, article, or technology note.
// ID and CreatedAt are assigned by the database on insert and never change.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Content         string          `json:"content"`
	ImageURL        string          `json:"image_url,omitempty"`
	SourceURL       string          `json:"source_url,omitempty"`
	DisplayCategory DisplayCategory `json:"display_category"`
	Tags            []string        `json:"tags"`
	Date            string          `json:"date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasTag reports whether the item carries tag, compared exactly.
func (i *Item) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}

// Clone returns a copy of the item that shares no memory with the original.
func (i Item) Clone() Item {
	i.Tags = slices.Clone(i.Tags)
	if i.Tags == nil {
		i.Tags = []string{}
	}
	return i
}

// NewItem holds the editable fields of an item about to be created. The
// display date is computed by the catalog at insert time.
type NewItem struct {
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Content         string          `json:"content"`
	ImageURL        string          `json:"image_url"`
	SourceURL       string          `json:"source_url,omitempty"`
	DisplayCategory DisplayCategory `json:"display_category"`
	Tags            []string        `json:"tags"`
}

// ItemPatch is the set of fields the detail view's edit mode may change.
// Category, date, and identity are not editable after creation.
type ItemPatch struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

// Apply returns a copy of item with the patch fields written over it.
func (p ItemPatch) Apply(item Item) Item {
	out := item.Clone()
	out.Title = p.Title
	out.Summary = p.Summary
	out.Content = p.Content
	out.ImageURL = p.ImageURL
	out.Tags = slices.Clone(p.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}
