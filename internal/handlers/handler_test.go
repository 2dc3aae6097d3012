// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the real catalog over an in-memory repository.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kasetinfo/internal/catalog"
	"kasetinfo/internal/middleware"
	"kasetinfo/internal/models"
	"kasetinfo/internal/session"
)

var errBackend = errors.New("connection refused")

// memRepo is an in-memory item repository. It satisfies
// catalog.Repository, catalog.ItemReader, ItemUpdater, and sitemap.Source.
type memRepo struct {
	mu      sync.Mutex
	items   []models.Item // newest first
	listErr error
	findErr error
	insErr  error
	updErr  error
	noEcho  bool
	clock   time.Time
}

func newMemRepo(items ...models.Item) *memRepo {
	return &memRepo{items: items, clock: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
}

func (m *memRepo) ListAll(ctx context.Context) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Item, len(m.items))
	for i, it := range m.items {
		out[i] = it.Clone()
	}
	return out, nil
}

func (m *memRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, it := range m.items {
		if it.ID == id {
			c := it.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Insert(_ context.Context, n models.NewItem, date string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insErr != nil {
		return nil, m.insErr
	}
	m.clock = m.clock.Add(time.Minute)
	it := models.Item{
		ID:              uuid.New(),
		Title:           n.Title,
		Summary:         n.Summary,
		Content:         n.Content,
		ImageURL:        n.ImageURL,
		SourceURL:       n.SourceURL,
		DisplayCategory: n.DisplayCategory,
		Tags:            n.Tags,
		Date:            date,
		CreatedAt:       m.clock,
		UpdatedAt:       m.clock,
	}
	m.items = append([]models.Item{it}, m.items...)
	if m.noEcho {
		return nil, nil
	}
	c := it.Clone()
	return &c, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, p models.ItemPatch) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updErr != nil {
		return nil, m.updErr
	}
	for i, it := range m.items {
		if it.ID == id {
			m.items[i] = p.Apply(it)
			m.items[i].UpdatedAt = m.clock.Add(time.Hour)
			c := m.items[i].Clone()
			return &c, nil
		}
	}
	return nil, nil
}

// item builds a stored item for fixtures.
func item(title string, c models.DisplayCategory, tags ...string) models.Item {
	if tags == nil {
		tags = []string{}
	}
	return models.Item{
		ID:              uuid.New(),
		Title:           title,
		Summary:         "สรุป " + title,
		Content:         "เนื้อหา " + title,
		DisplayCategory: c,
		Tags:            tags,
		Date:            "1 มกราคม 2569",
	}
}

// loadedCatalog returns a catalog that has completed one fetch from repo.
func loadedCatalog(t *testing.T, repo *memRepo) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(repo, catalog.WithClock(func() time.Time {
		return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	}))
	_ = cat.FetchAll(context.Background())
	return cat
}

// withURLParam adds a chi URL parameter to a request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withSession places session data where LoadSession would.
func withSession(r *http.Request, data *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, data))
}

func testSession() *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "admin@kasetinfo.local",
		DisplayName: "Admin",
		Role:        "admin",
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}
