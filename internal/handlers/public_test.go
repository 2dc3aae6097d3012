package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kasetinfo/internal/catalog"
	"kasetinfo/internal/models"
)

// articles returns n articles, newest first, tagged alternately.
func articles(n int) []models.Item {
	out := make([]models.Item, n)
	for i := range out {
		tag := "ข้าว"
		if i%2 == 1 {
			tag = "ผัก"
		}
		out[i] = item("บทความ "+string(rune('A'+i)), models.CategoryArticle, tag)
	}
	return out
}

func getList(t *testing.T, h http.HandlerFunc, target, section string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if section != "" {
		req = withURLParam(req, "section", section)
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHomeAndSectionPageSizes(t *testing.T) {
	repo := newMemRepo(articles(5)...)
	p := NewPublic(loadedCatalog(t, repo), repo, 4, 2)

	home := decode[listResponse](t, getList(t, p.List, "/api/items", ""))
	if len(home.Items) != 4 || home.TotalPages != 2 {
		t.Errorf("home: %d items, %d pages; want 4 items, 2 pages", len(home.Items), home.TotalPages)
	}
	section := decode[listResponse](t, getList(t, p.Section, "/api/articles", "articles"))
	if len(section.Items) != 2 || section.TotalPages != 3 {
		t.Errorf("section: %d items, %d pages; want 2 items, 3 pages", len(section.Items), section.TotalPages)
	}
}

func TestSectionPagination(t *testing.T) {
	repo := newMemRepo(articles(5)...)
	p := NewPublic(loadedCatalog(t, repo), repo, 2, 2)

	tests := []struct {
		query     string
		wantPage  int
		wantItems []string
		wantPrev  bool
		wantNext  bool
	}{
		{"", 1, []string{"บทความ A", "บทความ B"}, false, true},
		{"?page=2", 2, []string{"บทความ C", "บทความ D"}, true, true},
		{"?page=3", 3, []string{"บทความ E"}, true, false},
		{"?page=9", 3, []string{"บทความ E"}, true, false},
		{"?page=0", 1, []string{"บทความ A", "บทความ B"}, false, true},
		{"?page=abc", 1, []string{"บทความ A", "บทความ B"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := getList(t, p.Section, "/api/articles"+tt.query, "articles")
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rr.Code)
			}
			resp := decode[listResponse](t, rr)
			if resp.Page != tt.wantPage || resp.TotalPages != 3 || resp.Total != 5 {
				t.Errorf("page %d/%d total %d, want %d/3 total 5", resp.Page, resp.TotalPages, resp.Total, tt.wantPage)
			}
			var titles []string
			for _, it := range resp.Items {
				titles = append(titles, it.Title)
			}
			if strings.Join(titles, "|") != strings.Join(tt.wantItems, "|") {
				t.Errorf("items: got %v, want %v", titles, tt.wantItems)
			}
			if (resp.Prev != "") != tt.wantPrev || (resp.Next != "") != tt.wantNext {
				t.Errorf("links: prev %q next %q", resp.Prev, resp.Next)
			}
		})
	}
}

func TestSectionFilterLinksKeepFilter(t *testing.T) {
	repo := newMemRepo(articles(6)...)
	p := NewPublic(loadedCatalog(t, repo), repo, 1, 1)

	target := "/api/articles?" + url.Values{"q": {"บทความ"}, "tag": {"ข้าว"}, "page": {"2"}}.Encode()
	resp := decode[listResponse](t, getList(t, p.Section, target, "articles"))

	if resp.Total != 3 || resp.Page != 2 {
		t.Fatalf("total %d page %d, want 3 and 2", resp.Total, resp.Page)
	}
	for name, link := range map[string]string{"prev": resp.Prev, "next": resp.Next} {
		u, err := url.Parse(link)
		if err != nil {
			t.Fatalf("%s link %q: %v", name, link, err)
		}
		if u.Path != "/api/articles" {
			t.Errorf("%s path: got %q", name, u.Path)
		}
		if u.Query().Get("q") != "บทความ" || u.Query().Get("tag") != "ข้าว" {
			t.Errorf("%s link lost the filter: %q", name, link)
		}
	}
}

func TestSectionFacetsAndCategory(t *testing.T) {
	repo := newMemRepo(
		item("info", models.CategoryInfographic, "โรคพืช"),
		item("art 1", models.CategoryArticle, "ข้าว", "ดิน"),
		item("tech", models.CategoryTechnology, "โดรน"),
		item("art 2", models.CategoryArticle, "ดิน", "น้ำ"),
	)
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)

	resp := decode[listResponse](t, getList(t, p.Section, "/api/articles", "articles"))
	if resp.Total != 2 {
		t.Errorf("total: got %d, want 2", resp.Total)
	}
	want := []string{models.AllTags, "ข้าว", "ดิน", "น้ำ"}
	if strings.Join(resp.Tags, ",") != strings.Join(want, ",") {
		t.Errorf("tags: got %v, want %v", resp.Tags, want)
	}
	if resp.Tag != models.AllTags {
		t.Errorf("default tag: got %q", resp.Tag)
	}
	for _, it := range resp.Items {
		if it.Image != models.PlaceholderImageURL {
			t.Errorf("image without url: got %q, want placeholder", it.Image)
		}
		if it.URL != "/item/"+it.ID {
			t.Errorf("url: got %q", it.URL)
		}
	}

	all := decode[listResponse](t, getList(t, p.List, "/api/items", ""))
	if all.Total != 4 || all.Category != nil {
		t.Errorf("all items: total %d category %v", all.Total, all.Category)
	}
}

func TestSectionQueryIsCaseInsensitive(t *testing.T) {
	a := item("Organic Farming", models.CategoryArticle)
	b := item("rice", models.CategoryArticle)
	b.Summary = "an ORGANIC method"
	c := item("drones", models.CategoryArticle)
	repo := newMemRepo(a, b, c)
	p := NewPublic(loadedCatalog(t, repo), repo, 0, 0)

	resp := decode[listResponse](t, getList(t, p.Section, "/api/articles?q=organic", "articles"))
	if resp.Total != 2 || resp.TotalPages != 1 {
		t.Errorf("total %d pages %d, want 2 and 1", resp.Total, resp.TotalPages)
	}
}

func TestSectionUnknown(t *testing.T) {
	repo := newMemRepo()
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)
	rr := getList(t, p.Section, "/api/videos", "videos")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestListCatalogErrorAndRefresh(t *testing.T) {
	repo := newMemRepo(articles(2)...)
	repo.listErr = errBackend
	cat := loadedCatalog(t, repo)
	p := NewPublic(cat, repo, 12, 12)

	rr := getList(t, p.List, "/api/items", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	body := decode[map[string]string](t, rr)
	if body["error"] != errBackend.Error() || body["retry"] != refreshPath {
		t.Errorf("body: %v", body)
	}

	rr = httptest.NewRecorder()
	p.Refresh(rr, httptest.NewRequest(http.MethodPost, refreshPath, nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("refresh while failing: got %d, want 503", rr.Code)
	}

	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()

	rr = httptest.NewRecorder()
	p.Refresh(rr, httptest.NewRequest(http.MethodPost, refreshPath, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: got %d, want 200", rr.Code)
	}
	status := decode[statusResponse](t, rr)
	if status.Error != "" || status.Items != 2 || status.Loading {
		t.Errorf("status after refresh: %+v", status)
	}

	if rr := getList(t, p.List, "/api/items", ""); rr.Code != http.StatusOK {
		t.Errorf("list after refresh: got %d, want 200", rr.Code)
	}
}

func TestRefreshWithCancelledRequest(t *testing.T) {
	repo := newMemRepo(articles(2)...)
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rr := httptest.NewRecorder()
	p.Refresh(rr, httptest.NewRequest(http.MethodPost, refreshPath, nil).WithContext(ctx))
	if rr.Code != http.StatusOK {
		t.Errorf("refresh: got %d, want 200", rr.Code)
	}

	if rr := getList(t, p.List, "/api/items", ""); rr.Code != http.StatusOK {
		t.Fatalf("list after abandoned refresh: got %d, want 200", rr.Code)
	}
	rr = httptest.NewRecorder()
	p.Status(rr, httptest.NewRequest(http.MethodGet, "/api/catalog/status", nil))
	if s := decode[statusResponse](t, rr); s.Error != "" || s.Items != 2 {
		t.Errorf("status after abandoned refresh: %+v", s)
	}
}

func TestListErrorHidesConnectionDetails(t *testing.T) {
	repo := newMemRepo(articles(2)...)
	repo.listErr = fmt.Errorf("list items: failed to connect to `user=kasetinfo database=kasetinfo`: %w", errors.New("connection refused"))
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)

	rr := getList(t, p.List, "/api/items", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	if msg := decode[map[string]string](t, rr)["error"]; msg != "connection refused" {
		t.Errorf("error = %q, want %q", msg, "connection refused")
	}
}

func TestStatus(t *testing.T) {
	repo := newMemRepo(articles(3)...)
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)

	rr := httptest.NewRecorder()
	p.Status(rr, httptest.NewRequest(http.MethodGet, "/api/catalog/status", nil))
	s := decode[statusResponse](t, rr)
	if s.Items != 3 || s.Error != "" || s.Retry != "" || s.Version == 0 {
		t.Errorf("status: %+v", s)
	}
}

func TestAllStories(t *testing.T) {
	repo := newMemRepo(articles(30)...)
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)

	rr := httptest.NewRecorder()
	p.AllStories(rr, httptest.NewRequest(http.MethodGet, "/api/all-stories", nil))
	resp := decode[struct {
		Items []storyLink `json:"items"`
		Total int         `json:"total"`
	}](t, rr)
	if resp.Total != 30 || len(resp.Items) != 30 {
		t.Errorf("got %d/%d stories, want 30 unpaginated", len(resp.Items), resp.Total)
	}
	if resp.Items[0].Title != "บทความ A" {
		t.Errorf("first story: got %q, want newest", resp.Items[0].Title)
	}
}

func TestDetail(t *testing.T) {
	it := item("ปุ๋ยหมัก", models.CategoryArticle)
	it.Content = "บรรทัดแรก\nบรรทัดสอง\nhttps://example.com/compost.png"
	it.ImageURL = "https://res.cloudinary.com/demo/image/upload/v1/compost.jpg"
	repo := newMemRepo(it)
	p := NewPublic(loadedCatalog(t, repo), repo, 12, 12)

	serve := func(id string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		p.Detail(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil), "id", id))
		return rr
	}

	t.Run("found", func(t *testing.T) {
		rr := serve(it.ID.String())
		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d", rr.Code)
		}
		resp := decode[detailResponse](t, rr)
		if resp.Title != it.Title || resp.ID != it.ID {
			t.Errorf("item: %+v", resp.Item)
		}
		if !strings.Contains(resp.ContentHTML, "<br>") {
			t.Errorf("line breaks not preserved: %q", resp.ContentHTML)
		}
		if !strings.Contains(resp.ContentHTML, `<img src="https://example.com/compost.png"`) {
			t.Errorf("image line not embedded: %q", resp.ContentHTML)
		}
		if !strings.Contains(resp.Image, "/upload/q_auto,f_auto,c_fill,w_1200/") {
			t.Errorf("image not transformed: %q", resp.Image)
		}
	})

	t.Run("detail reads the database not the catalog", func(t *testing.T) {
		repo.mu.Lock()
		repo.items[0].Title = "แก้ไขแล้ว"
		repo.mu.Unlock()
		resp := decode[detailResponse](t, serve(it.ID.String()))
		if resp.Title != "แก้ไขแล้ว" {
			t.Errorf("title: got %q, want fresh database value", resp.Title)
		}
	})

	for name, id := range map[string]string{"missing": "6f1c1b4e-7f5e-4c55-9b57-000000000000", "malformed": "not-a-uuid"} {
		t.Run(name, func(t *testing.T) {
			rr := serve(id)
			if rr.Code != http.StatusNotFound {
				t.Errorf("status: got %d, want 404", rr.Code)
			}
			if msg := errorMessage(t, rr); msg != catalog.ErrNotFound.Error() {
				t.Errorf("error: got %q", msg)
			}
		})
	}

	t.Run("backend failure", func(t *testing.T) {
		repo.mu.Lock()
		repo.findErr = errBackend
		repo.mu.Unlock()
		defer func() { repo.mu.Lock(); repo.findErr = nil; repo.mu.Unlock() }()

		rr := serve(it.ID.String())
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rr.Code)
		}
	})
}

// staticState is a CatalogReader pinned to one snapshot.
type staticState catalog.State

func (s staticState) State() catalog.State           { return catalog.State(s) }
func (s staticState) FetchAll(context.Context) error { return nil }

func TestListWhileLoading(t *testing.T) {
	p := NewPublic(staticState{Loading: true}, newMemRepo(), 12, 12)
	rr := getList(t, p.List, "/api/items", "")
	resp := decode[listResponse](t, rr)
	if rr.Code != http.StatusOK || resp.Total != 0 || resp.TotalPages != 1 || len(resp.Items) != 0 {
		t.Errorf("loading list: %d %+v", rr.Code, resp)
	}
}
