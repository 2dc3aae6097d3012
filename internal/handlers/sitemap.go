package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"kasetinfo/internal/cache"
	"kasetinfo/internal/sitemap"
)

// ResponseCache stores rendered documents. cache.ResponseCache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// Sitemap serves /sitemap.xml from the response cache, rendering it from
// the database on a miss. A sitemap rendered while the item listing fails
// is served but not cached.
type Sitemap struct {
	baseURL string
	source  sitemap.Source
	cache   ResponseCache
	now     func() time.Time
}

// NewSitemap creates the sitemap handler. cache may be nil.
func NewSitemap(baseURL string, source sitemap.Source, rc ResponseCache) *Sitemap {
	return &Sitemap{baseURL: baseURL, source: source, cache: rc, now: time.Now}
}

// ServeHTTP implements http.Handler.
func (s *Sitemap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.cache != nil {
		if body, ok := s.cache.Get(ctx, cache.SitemapKey); ok {
			writeXML(w, body, "HIT")
			return
		}
	}

	res, err := sitemap.Build(ctx, s.baseURL, s.source, s.now())
	if err != nil {
		slog.Error("sitemap render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	slog.Debug("sitemap rendered", "urls", res.URLs, "degraded", res.Degraded)

	if s.cache != nil && !res.Degraded {
		s.cache.Set(ctx, cache.SitemapKey, res.Body)
	}
	writeXML(w, res.Body, "MISS")
}

func writeXML(w http.ResponseWriter, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("X-Cache", cacheStatus)
	_, _ = w.Write(body)
}
