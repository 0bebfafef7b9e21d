package pages

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/integrations/gemini"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/middlewares"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
)

var (
	partner  = &models.User{ID: "user-1", Role: models.RoleUser}
	stranger = &models.User{ID: "user-9", Role: models.RoleUser}
	admin    = &models.User{ID: "admin-1", Role: models.RoleAdmin}
	god      = &models.User{ID: "god-1", Role: models.RoleGod}
)

type testEnv struct {
	handler http.Handler
	repo    *fakeRepo
	files   *fakeFiles
	redis   *miniredis.Miniredis
}

func newTestEnv(t *testing.T, suggester Suggester) *testEnv {
	t.Helper()

	client, server, cfg := newTestRdb(t)
	repo := &fakeRepo{pages: seedPages()}
	files := &fakeFiles{objects: map[string]bool{
		"uploads/user-1/serce.pdf": true,
		"uploads/user-1/cover.png": true,
		"uploads/user-1/new.pdf":   true,
	}}

	minter := stubMinter("Tok0000001")
	allocator := publish.NewAllocator(minter, cfg.DefaultCategory, cfg.DefaultSlug)
	publisher := publish.New(repo, allocator, minter, cfg.DefaultSlug)

	s := New(repo, publisher, client, files, suggester, cfg)
	mw := middlewares.New(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pages", mw.IsAuthenticated(s.ListPagesHandler))
	mux.HandleFunc("GET /api/pages/{id}", mw.IsAuthenticated(s.GetPageHandler))
	mux.HandleFunc("PATCH /api/pages/{id}", mw.IsAuthenticated(s.UpdatePageHandler))
	mux.HandleFunc("DELETE /api/pages/{id}", mw.IsAuthenticated(s.DeletePageHandler))
	mux.HandleFunc("POST /api/pages/{id}/suggest", mw.IsAuthenticated(s.SuggestHandler))
	mux.HandleFunc("POST /api/pages/generate-preview", mw.IsAuthenticated(s.GeneratePreviewHandler))
	mux.HandleFunc("GET /api/pages/preview/{token}", s.PreviewPageHandler)
	mux.HandleFunc("POST /api/pages/visits", s.VisitsHandler)
	mux.HandleFunc("GET /api/{category}/{token}", s.PublicPageHandler)

	return &testEnv{
		handler: mw.LoadUser(mux),
		repo:    repo,
		files:   files,
		redis:   server,
	}
}

func (e *testEnv) do(method, target, body string, user *models.User) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Host = "partners.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	if user != nil {
		req.Header.Set("X-User-Id", user.ID)
		req.Header.Set("X-User-Role", string(user.Role))
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q; %v", rec.Body.String(), err)
	}
	return v
}

type fieldErrors struct {
	Errors []publish.FieldError `json:"errors"`
}

func TestListPagesHandler(t *testing.T) {

	type listing struct {
		Pages []models.Page `json:"pages"`
		Stats Stats         `json:"stats"`
	}

	tests := []struct {
		name   string
		target string
		user   *models.User
		status int
		ids    []string
		stats  Stats
	}{
		{"anonymous", "/api/pages", nil, http.StatusUnauthorized, nil, Stats{}},
		{
			"partner sees own pages", "/api/pages", partner, http.StatusOK,
			[]string{"page-1", "page-3"},
			Stats{Total: 2, Draft: 1, Pending: 1, Ebook: 1, Sales: 1},
		},
		{
			"admin sees every page", "/api/pages", admin, http.StatusOK,
			[]string{"page-1", "page-2", "page-3"},
			Stats{Total: 3, Active: 1, Draft: 1, Pending: 1, Ebook: 1, Sales: 2, Visitors: 5, Leads: 2},
		},
		{
			"status filter", "/api/pages?status=active", god, http.StatusOK,
			[]string{"page-2"},
			Stats{Total: 1, Active: 1, Sales: 1, Visitors: 5, Leads: 2},
		},
		{"nothing matches", "/api/pages", stranger, http.StatusOK, []string{}, Stats{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodGet, tt.target, "", tt.user)

			if rec.Code != tt.status {
				t.Fatalf("got status %d, want %d", rec.Code, tt.status)
			}

			if rec.Code != http.StatusOK {
				return
			}

			got := decode[listing](t, rec)
			ids := []string{}
			for _, p := range got.Pages {
				ids = append(ids, p.ID)
			}

			if diff := cmp.Diff(tt.ids, ids); diff != "" {
				t.Errorf("pages mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tt.stats, got.Stats); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetPageHandler(t *testing.T) {

	tests := []struct {
		name   string
		id     string
		user   *models.User
		status int
	}{
		{"owner", "page-1", partner, http.StatusOK},
		{"admin", "page-1", admin, http.StatusOK},
		{"someone else's page", "page-2", partner, http.StatusForbidden},
		{"missing page", "nope", admin, http.StatusNotFound},
		{"anonymous", "page-1", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodGet, "/api/pages/"+tt.id, "", tt.user)

			if rec.Code != tt.status {
				t.Fatalf("got status %d, want %d", rec.Code, tt.status)
			}

			if rec.Code == http.StatusOK {
				if page := decode[models.Page](t, rec); page.ID != tt.id {
					t.Errorf("got page %q, want %q", page.ID, tt.id)
				}
			}
		})
	}
}

func TestUpdatePageHandler(t *testing.T) {

	tests := []struct {
		name    string
		user    *models.User
		body    string
		status  int
		errors  []publish.FieldError
		url     string
		changed map[string]string
	}{
		{
			name:   "publish mints the address",
			user:   partner,
			body:   `{"status":"active"}`,
			status: http.StatusOK,
			url:    "https://partners.example.com/p/Tok0000001/zdrowe-serce",
		},
		{
			name:    "copy edit",
			user:    partner,
			body:    `{"pagecontent_hero_headline":"Nowe serce","color":"pewnosc"}`,
			status:  http.StatusOK,
			changed: map[string]string{"pagecontent_hero_headline": "Nowe serce"},
		},
		{
			name:   "invalid status",
			user:   partner,
			body:   `{"status":"live","pagecontent_hero_headline":"X"}`,
			status: http.StatusBadRequest,
			errors: []publish.FieldError{{
				Field:  "status",
				Reason: `invalid value "live", permitted values: draft, pending, active, rejected`,
			}},
		},
		{
			name:   "url is not writable",
			user:   admin,
			body:   `{"url":"https://evil.example.com"}`,
			status: http.StatusBadRequest,
			errors: []publish.FieldError{{Field: "url", Reason: "field is not allowed to be updated"}},
		},
		{
			name:   "no changes",
			user:   partner,
			body:   `{}`,
			status: http.StatusBadRequest,
			errors: []publish.FieldError{{Field: "*", Reason: "no fields to update"}},
		},
		{name: "malformed body", user: partner, body: `{"status":`, status: http.StatusBadRequest},
		{name: "empty body", user: partner, status: http.StatusBadRequest},
		{
			name:   "source document not uploaded",
			user:   partner,
			body:   `{"s3_file_key":"uploads/user-1/missing.pdf"}`,
			status: http.StatusBadRequest,
			errors: []publish.FieldError{{Field: "s3_file_key", Reason: "object not found in storage"}},
		},
		{
			name:    "source document uploaded",
			user:    partner,
			body:    `{"s3_file_key":"uploads/user-1/new.pdf"}`,
			status:  http.StatusOK,
			changed: map[string]string{"s3_file_key": "uploads/user-1/new.pdf"},
		},
		{name: "someone else's page", user: stranger, body: `{"status":"active"}`, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			before, _ := env.repo.GetPage(t.Context(), "page-1")

			rec := env.do(http.MethodPatch, "/api/pages/page-1", tt.body, tt.user)
			if rec.Code != tt.status {
				t.Fatalf("got status %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}

			after, _ := env.repo.GetPage(t.Context(), "page-1")

			if tt.errors != nil {
				got := decode[fieldErrors](t, rec)
				if diff := cmp.Diff(tt.errors, got.Errors); diff != "" {
					t.Errorf("errors mismatch (-want +got):\n%s", diff)
				}
			}

			if rec.Code != http.StatusOK {
				if diff := cmp.Diff(before, after); diff != "" {
					t.Errorf("rejected commit changed the page (-before +after):\n%s", diff)
				}
				return
			}

			page := decode[models.Page](t, rec)
			if page.PublicURL() != tt.url {
				t.Errorf("got url %q, want %q", page.PublicURL(), tt.url)
			}

			for field, value := range tt.changed {
				if after.Fields[field] != value {
					t.Errorf("got %s = %q, want %q", field, after.Fields[field], value)
				}
			}
		})
	}
}

func TestUpdateInvalidatesPublicCache(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(http.MethodGet, "/api/omega/Tok0000002", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	if !env.redis.Exists("page:Tok0000002") {
		t.Fatal("published page should be cached")
	}

	rec := env.do(http.MethodPatch, "/api/pages/page-2", `{"category":"sport"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if page := decode[models.Page](t, rec); page.PublicURL() != "https://partners.example.com/sport/Tok0000002/omega-guide" {
		t.Errorf("got url %q, want the token kept under the new category", page.PublicURL())
	}

	if env.redis.Exists("page:Tok0000002") {
		t.Error("commit should drop the cached copy")
	}

	if rec := env.do(http.MethodGet, "/api/omega/Tok0000002", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("old address got status %d, want 404", rec.Code)
	}

	if rec := env.do(http.MethodGet, "/api/sport/Tok0000002", "", nil); rec.Code != http.StatusOK {
		t.Errorf("new address got status %d, want 200", rec.Code)
	}
}

func TestPublicPageHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	for range 3 {
		rec := env.do(http.MethodGet, "/api/omega/Tok0000002", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rec.Code)
		}

		if page := decode[models.Page](t, rec); page.ID != "page-2" {
			t.Fatalf("got page %q, want page-2", page.ID)
		}
	}

	if env.repo.publishedCalls != 1 {
		t.Errorf("got %d store lookups, want 1 with the rest from cache", env.repo.publishedCalls)
	}

	// Cached by token, the category still has to match
	if rec := env.do(http.MethodGet, "/api/sport/Tok0000002", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("wrong category got status %d, want 404", rec.Code)
	}

	if rec := env.do(http.MethodGet, "/api/omega/Unknown000", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown token got status %d, want 404", rec.Code)
	}
}

func TestPublicPageWithEscapedCategory(t *testing.T) {

	tests := []struct {
		category string
		target   string
		url      string
	}{
		{
			"żywienie",
			"/api/%C5%BCywienie/Tok0000001",
			"https://partners.example.com/%C5%BCywienie/Tok0000001/zdrowe-serce",
		},
		{
			"zdrowe nawyki",
			"/api/zdrowe%20nawyki/Tok0000001",
			"https://partners.example.com/zdrowe%20nawyki/Tok0000001/zdrowe-serce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			env := newTestEnv(t, nil)

			body := fmt.Sprintf(`{"status":"active","category":%q}`, tt.category)
			rec := env.do(http.MethodPatch, "/api/pages/page-1", body, partner)
			if rec.Code != http.StatusOK {
				t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
			}

			if page := decode[models.Page](t, rec); page.PublicURL() != tt.url {
				t.Errorf("got url %q, want %q", page.PublicURL(), tt.url)
			}

			// First from the store, then from the cache
			for range 2 {
				rec = env.do(http.MethodGet, tt.target, "", nil)
				if rec.Code != http.StatusOK {
					t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
				}

				if page := decode[models.Page](t, rec); page.ID != "page-1" {
					t.Errorf("got page %q, want page-1", page.ID)
				}
			}
		})
	}
}

func TestUpdatePageChecksFieldsFirst(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPatch, "/api/pages/missing", `{"status":"live"}`, admin)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400: %s", rec.Code, rec.Body.String())
	}

	got := decode[fieldErrors](t, rec)
	if len(got.Errors) != 1 || got.Errors[0].Field != "status" {
		t.Errorf("got errors %v, want the status rejected", got.Errors)
	}

	if env.repo.loads != 0 {
		t.Errorf("got %d page loads, want none for rejected fields", env.repo.loads)
	}

	if rec := env.do(http.MethodPatch, "/api/pages/missing", `{"status":"draft"}`, admin); rec.Code != http.StatusNotFound {
		t.Errorf("valid fields on a missing page got status %d, want 404", rec.Code)
	}
}

func TestUpdatePageLoadsOnce(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPatch, "/api/pages/page-1", `{"status":"active"}`, partner)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if env.repo.loads != 1 {
		t.Errorf("got %d page loads, want 1", env.repo.loads)
	}
}

func TestDeletePageHandler(t *testing.T) {

	t.Run("owner deletes page and documents", func(t *testing.T) {
		env := newTestEnv(t, nil)

		rec := env.do(http.MethodDelete, "/api/pages/page-1", "", partner)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rec.Code)
		}

		got := decode[map[string]any](t, rec)
		if got["deleted_files"] != float64(3) {
			t.Errorf("got %v deleted files, want 3", got["deleted_files"])
		}

		if diff := cmp.Diff([]string{"uploads/user-1/"}, env.files.prefixes); diff != "" {
			t.Errorf("deleted prefixes mismatch (-want +got):\n%s", diff)
		}

		if _, err := env.repo.GetPage(t.Context(), "page-1"); !errors.Is(err, models.ErrPageNotFound) {
			t.Errorf("got %v, want the page gone", err)
		}
	})

	t.Run("published page leaves the cache", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.do(http.MethodGet, "/api/omega/Tok0000002", "", nil)

		if rec := env.do(http.MethodDelete, "/api/pages/page-2", "", admin); rec.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rec.Code)
		}

		if env.redis.Exists("page:Tok0000002") {
			t.Error("deleted page should not stay cached")
		}

		if rec := env.do(http.MethodGet, "/api/omega/Tok0000002", "", nil); rec.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", rec.Code)
		}
	})

	t.Run("forbidden and missing", func(t *testing.T) {
		env := newTestEnv(t, nil)

		if rec := env.do(http.MethodDelete, "/api/pages/page-1", "", stranger); rec.Code != http.StatusForbidden {
			t.Errorf("got status %d, want 403", rec.Code)
		}

		if rec := env.do(http.MethodDelete, "/api/pages/nope", "", admin); rec.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", rec.Code)
		}

		if len(env.files.prefixes) != 0 {
			t.Errorf("got deleted prefixes %v, want none", env.files.prefixes)
		}
	})
}

func TestGeneratePreviewHandler(t *testing.T) {

	type preview struct {
		Success    bool   `json:"success"`
		PreviewURL string `json:"previewUrl"`
		Category   string `json:"category"`
	}

	env := newTestEnv(t, nil)

	for range 2 {
		rec := env.do(http.MethodPost, "/api/pages/generate-preview", `{"pageId":"page-1"}`, partner)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rec.Code)
		}

		expected := preview{Success: true, PreviewURL: "/preview/Tok0000001", Category: "p"}
		if diff := cmp.Diff(expected, decode[preview](t, rec)); diff != "" {
			t.Errorf("preview mismatch (-want +got):\n%s", diff)
		}
	}

	// Existing preview addresses are returned verbatim
	rec := env.do(http.MethodPost, "/api/pages/generate-preview", `{"pageId":"page-3"}`, partner)
	if got := decode[preview](t, rec); got.PreviewURL != "/preview/prevTok001" || got.Category != "sport" {
		t.Errorf("got %+v, want the stored preview", got)
	}

	tests := []struct {
		name   string
		body   string
		user   *models.User
		status int
	}{
		{"missing page id", `{}`, partner, http.StatusBadRequest},
		{"unknown page", `{"pageId":"nope"}`, admin, http.StatusNotFound},
		{"someone else's page", `{"pageId":"page-2"}`, partner, http.StatusForbidden},
		{"anonymous", `{"pageId":"page-1"}`, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(http.MethodPost, "/api/pages/generate-preview", tt.body, tt.user); rec.Code != tt.status {
				t.Errorf("got status %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestPreviewPageHandler(t *testing.T) {

	tests := []struct {
		name    string
		token   string
		user    *models.User
		preview bool
		status  int
	}{
		{"signed in", "prevTok001", partner, false, http.StatusOK},
		{"anonymous in preview mode", "prevTok001", nil, true, http.StatusOK},
		{"anonymous", "prevTok001", nil, false, http.StatusUnauthorized},
		{"unknown token", "nope", admin, false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/pages/preview/"+tt.token, nil)
			if tt.user != nil {
				req.Header.Set("X-User-Id", tt.user.ID)
				req.Header.Set("X-User-Role", string(tt.user.Role))
			}
			if tt.preview {
				req.Header.Set("X-Preview-Mode", "true")
			}

			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("got status %d, want %d", rec.Code, tt.status)
			}

			if rec.Code == http.StatusOK && decode[models.Page](t, rec).ID != "page-3" {
				t.Error("got the wrong page")
			}
		})
	}
}

func TestVisitsHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := range 2 {
		rec := env.do(http.MethodPost, "/api/pages/visits", `{"pageId":"page-2"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rec.Code)
		}

		got := decode[map[string]any](t, rec)
		if got["visitors"] != float64(6+i) {
			t.Errorf("got %v visitors, want %d", got["visitors"], 6+i)
		}
	}

	if rec := env.do(http.MethodPost, "/api/pages/visits", `{"pageId":"nope"}`, nil); rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}

	if rec := env.do(http.MethodPost, "/api/pages/visits", `{}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestSuggestHandler(t *testing.T) {

	tests := []struct {
		name      string
		suggester *fakeSuggester
		locked    bool
		user      *models.User
		status    int
		changes   map[string]string
	}{
		{
			name: "suggestions pass the gate",
			suggester: &fakeSuggester{suggestions: map[string]string{
				"pagecontent_hero_headline": "Silne serce",
				"url":                       "https://evil.example.com",
			}},
			user:    partner,
			status:  http.StatusOK,
			changes: map[string]string{"pagecontent_hero_headline": "Silne serce"},
		},
		{
			name:      "already generating",
			suggester: &fakeSuggester{},
			locked:    true,
			user:      partner,
			status:    http.StatusConflict,
		},
		{
			name:      "quota exhausted",
			suggester: &fakeSuggester{err: fmt.Errorf("%w (10 RPM)", gemini.ErrMinuteLimitReached)},
			user:      partner,
			status:    http.StatusTooManyRequests,
		},
		{
			name:      "model failure",
			suggester: &fakeSuggester{err: errors.New("boom")},
			user:      admin,
			status:    http.StatusBadGateway,
		},
		{
			name:      "someone else's page",
			suggester: &fakeSuggester{},
			user:      stranger,
			status:    http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.suggester)
			if tt.locked {
				env.redis.Set("suggest:page-1", "another-request")
			}

			before, _ := env.repo.GetPage(t.Context(), "page-1")
			rec := env.do(http.MethodPost, "/api/pages/page-1/suggest", "", tt.user)

			if rec.Code != tt.status {
				t.Fatalf("got status %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}

			if tt.changes != nil {
				got := decode[struct {
					Changes map[string]string `json:"changes"`
				}](t, rec)

				if diff := cmp.Diff(tt.changes, got.Changes); diff != "" {
					t.Errorf("changes mismatch (-want +got):\n%s", diff)
				}
			}

			after, _ := env.repo.GetPage(t.Context(), "page-1")
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("suggestions must not be stored (-before +after):\n%s", diff)
			}

			if !tt.locked && env.redis.Exists("suggest:page-1") {
				t.Error("lock should be released")
			}
		})
	}
}

func TestSuggestHandlerUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/pages/page-1/suggest", "", partner)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", rec.Code)
	}
}
