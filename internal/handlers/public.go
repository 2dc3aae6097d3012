// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kasetinfo/internal/catalog"
	"kasetinfo/internal/imagehost"
	"kasetinfo/internal/markdown"
	"kasetinfo/internal/metrics"
	"kasetinfo/internal/models"
)

// refreshPath is the retry link returned alongside catalog fetch errors.
const refreshPath = "/api/catalog/refresh"

// CatalogReader is the part of the content store the public API reads.
type CatalogReader interface {
	State() catalog.State
	FetchAll(ctx context.Context) error
}

// Public groups the read-only catalog endpoints. Lists are served from the
// in-memory catalog; the detail endpoint reads the database directly.
type Public struct {
	catalog         CatalogReader
	items           catalog.ItemReader
	homePageSize    int
	sectionPageSize int
}

// NewPublic creates a new Public handler group. homePageSize applies to the
// all-categories list and sectionPageSize to each category section. A size
// of zero or less serves the list as a single page.
func NewPublic(cat CatalogReader, items catalog.ItemReader, homePageSize, sectionPageSize int) *Public {
	return &Public{catalog: cat, items: items, homePageSize: homePageSize, sectionPageSize: sectionPageSize}
}

// itemCard is an item as shown in a list.
type itemCard struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Summary         string                 `json:"summary"`
	Image           string                 `json:"image"`
	DisplayCategory models.DisplayCategory `json:"display_category"`
	Tags            []string               `json:"tags"`
	Date            string                 `json:"date"`
	URL             string                 `json:"url"`
}

func newCard(it models.Item) itemCard {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	return itemCard{
		ID:              it.ID.String(),
		Title:           it.Title,
		Summary:         it.Summary,
		Image:           imagehost.DisplayURL(it.ImageURL, imagehost.Card),
		DisplayCategory: it.DisplayCategory,
		Tags:            tags,
		Date:            it.Date,
		URL:             "/item/" + it.ID.String(),
	}
}

// listResponse is one page of a filtered list.
type listResponse struct {
	Category   *models.DisplayCategory `json:"category,omitempty"`
	Query      string                  `json:"query"`
	Tag        string                  `json:"tag"`
	Items      []itemCard              `json:"items"`
	Tags       []string                `json:"tags"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"total_pages"`
	Total      int                     `json:"total"`
	Prev       string                  `json:"prev,omitempty"`
	Next       string                  `json:"next,omitempty"`
}

// List serves every category.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	p.serveList(w, r, nil)
}

// Section serves one category by its section path (articles, ...).
func (p *Public) Section(w http.ResponseWriter, r *http.Request) {
	c, ok := models.CategoryForSection(chi.URLParam(r, "section"))
	if !ok {
		writeError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}
	p.serveList(w, r, &c)
}

// serveList applies q and tag before page, so a request whose filter
// differs from the one a page link was built for starts on page 1.
func (p *Public) serveList(w http.ResponseWriter, r *http.Request, c *models.DisplayCategory) {
	state := p.catalog.State()
	if state.Error != "" {
		writeCatalogError(w, state.Error)
		return
	}

	size := p.sectionPageSize
	if c == nil {
		size = p.homePageSize
	}
	q := r.URL.Query()
	view := catalog.NewView(c, size)
	view.SetQuery(q.Get("q"))
	view.SetTag(q.Get("tag"))
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		view.GoTo(n)
	}
	page := view.Render(state)

	resp := listResponse{
		Category:   c,
		Query:      view.Filter().Query,
		Tag:        view.Filter().Tag,
		Items:      make([]itemCard, len(page.Items)),
		Tags:       page.Tags,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	}
	for i, it := range page.Items {
		resp.Items[i] = newCard(it)
	}
	if page.HasPrev {
		resp.Prev = pageLink(r.URL.Path, view.Filter(), page.Page-1)
	}
	if page.HasNext {
		resp.Next = pageLink(r.URL.Path, view.Filter(), page.Page+1)
	}

	writeJSON(w, http.StatusOK, resp)
}

// pageLink builds a link to page n that keeps the current filter.
func pageLink(path string, f catalog.Filter, n int) string {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Tag != "" && f.Tag != models.AllTags {
		v.Set("tag", f.Tag)
	}
	v.Set("page", strconv.Itoa(n))
	return path + "?" + v.Encode()
}

type storyLink struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	DisplayCategory models.DisplayCategory `json:"display_category"`
	Date            string                 `json:"date"`
	URL             string                 `json:"url"`
}

// AllStories lists every item title, newest first, without pagination.
func (p *Public) AllStories(w http.ResponseWriter, r *http.Request) {
	state := p.catalog.State()
	if state.Error != "" {
		writeCatalogError(w, state.Error)
		return
	}

	stories := make([]storyLink, len(state.Items))
	for i, it := range state.Items {
		stories[i] = storyLink{
			ID:              it.ID.String(),
			Title:           it.Title,
			DisplayCategory: it.DisplayCategory,
			Date:            it.Date,
			URL:             "/item/" + it.ID.String(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": stories, "total": len(stories)})
}

type detailResponse struct {
	models.Item
	Image       string `json:"image"`
	ContentHTML string `json:"content_html"`
}

// Detail reads one item from the database, bypassing the catalog.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	it, err := catalog.LoadDetail(r.Context(), p.items, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}
	if err != nil {
		slog.Error("load item failed", "error", err)
		writeError(w, http.StatusInternalServerError, catalog.FetchFailedMessage)
		return
	}

	html, err := markdown.ToHTML(it.Content)
	if err != nil {
		slog.Warn("render item content failed", "id", it.ID, "error", err)
		html = strings.ReplaceAll(it.Content, "\n", "<br>")
	}

	writeJSON(w, http.StatusOK, detailResponse{
		Item:        *it,
		Image:       imagehost.DisplayURL(it.ImageURL, imagehost.Detail),
		ContentHTML: html,
	})
}

type statusResponse struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Items   int    `json:"items"`
	Version uint64 `json:"version"`
	Retry   string `json:"retry,omitempty"`
}

func statusOf(s catalog.State) statusResponse {
	resp := statusResponse{Loading: s.Loading, Error: s.Error, Items: len(s.Items), Version: s.Version}
	if s.Error != "" {
		resp.Retry = refreshPath
	}
	return resp
}

// Status reports the catalog's loading and error state.
func (p *Public) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusOf(p.catalog.State()))
}

// Refresh re-runs the full catalog fetch. It is the retry action offered
// with every fetch error.
func (p *Public) Refresh(w http.ResponseWriter, r *http.Request) {
	err := p.catalog.FetchAll(r.Context())
	state := p.catalog.State()
	metrics.ObserveFetch(err, len(state.Items))
	if err != nil {
		slog.Error("catalog refresh failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, statusOf(state))
		return
	}
	writeJSON(w, http.StatusOK, statusOf(state))
}

func writeCatalogError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error": msg,
		"retry": refreshPath,
	})
}
