// Package sitemap builds the sitemap.xml document for the public site:
// every static section route plus one entry per catalog item.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kasetinfo/internal/models"
)

// Namespace is the sitemap protocol XML namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// StaticPaths are the public routes listed before any item pages.
var StaticPaths = []string{
	"/",
	"/infographics",
	"/articles",
	"/technology",
	"/admin",
	"/all-stories",
}

// Source lists the items to include.
type Source interface {
	ListAll(ctx context.Context) ([]models.Item, error)
}

// URL is one <url> entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Entries returns the sitemap entries for baseURL. Static routes carry
// today's date; items carry the date of their last update.
func Entries(baseURL string, items []models.Item, now time.Time) []URL {
	base := strings.TrimRight(baseURL, "/")
	today := day(now)

	urls := make([]URL, 0, len(StaticPaths)+len(items))
	for _, p := range StaticPaths {
		priority := "0.9"
		if p == "/" {
			priority = "1.0"
		}
		urls = append(urls, URL{Loc: base + p, LastMod: today, ChangeFreq: "daily", Priority: priority})
	}
	for _, it := range items {
		lastmod := today
		if !it.UpdatedAt.IsZero() {
			lastmod = day(it.UpdatedAt)
		}
		urls = append(urls, URL{
			Loc:        base + "/item/" + it.ID.String(),
			LastMod:    lastmod,
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
	}
	return urls
}

// Render encodes entries as a sitemap document.
func Render(urls []URL) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(urlSet{Xmlns: Namespace, URLs: urls}); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Result is a rendered sitemap.
type Result struct {
	Body []byte
	URLs int
	// Degraded is set when the item listing failed and Body holds the
	// static routes only.
	Degraded bool
}

// Build lists items from src and renders the sitemap. If listing fails the
// sitemap still renders with the static routes only, the failure is logged
// as a warning, and the result is marked degraded.
func Build(ctx context.Context, baseURL string, src Source, now time.Time) (Result, error) {
	items, err := src.ListAll(ctx)
	degraded := err != nil
	if degraded {
		slog.Warn("sitemap: item listing failed, writing static routes only", "error", err)
		items = nil
	}
	urls := Entries(baseURL, items, now)
	out, err := Render(urls)
	if err != nil {
		return Result{}, err
	}
	return Result{Body: out, URLs: len(urls), Degraded: degraded}, nil
}

func day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
