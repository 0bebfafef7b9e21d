package pages

import (
	"context"
	"maps"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
	"github.com/alicebob/miniredis/v2"
)

// In-memory pages table
type fakeRepo struct {
	mu             sync.Mutex
	pages          map[string]*models.Page
	publishedCalls int
	loads          int
}

func clonePage(p *models.Page) *models.Page {
	c := *p
	c.Fields = maps.Clone(p.Fields)
	return &c
}

func (f *fakeRepo) GetPage(ctx context.Context, id string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	p, ok := f.pages[id]
	if !ok {
		return nil, models.ErrPageNotFound
	}
	return clonePage(p), nil
}

func (f *fakeRepo) UpdateFields(ctx context.Context, id string, fields map[string]string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok {
		return nil, models.ErrPageNotFound
	}

	for k, v := range fields {
		switch k {
		case models.FieldStatus:
			p.Status = models.Status(v)
		case models.FieldCategory:
			p.Category = v
		case models.FieldColor:
			p.Color = v
		case models.FieldURL:
			p.URL = &v
		default:
			p.Fields[k] = v
		}
	}
	return clonePage(p), nil
}

func (f *fakeRepo) SetDraftURL(ctx context.Context, id, draftURL string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok || p.DraftURL != nil {
		return false, nil
	}
	p.DraftURL = &draftURL
	return true, nil
}

func (f *fakeRepo) ListPages(ctx context.Context, filter models.PageFilter) (models.Pages, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pages models.Pages
	for _, id := range []string{"page-1", "page-2", "page-3"} {
		p, ok := f.pages[id]
		if !ok {
			continue
		}
		if filter.OwnerID != "" && p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		pages = append(pages, *clonePage(p))
	}
	return pages, nil
}

func (f *fakeRepo) GetPublished(ctx context.Context, category, token string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishedCalls++

	for _, p := range f.pages {
		if p.Status == models.StatusActive && strings.Contains(p.PublicURL(), publish.AddressPath(category, token)+"/") {
			return clonePage(p), nil
		}
	}
	return nil, models.ErrPageNotFound
}

func (f *fakeRepo) GetByDraftURL(ctx context.Context, draftURL string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		if p.DraftURL != nil && *p.DraftURL == draftURL {
			return clonePage(p), nil
		}
	}
	return nil, models.ErrPageNotFound
}

func (f *fakeRepo) IncrementVisits(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok {
		return 0, models.ErrPageNotFound
	}
	p.Visitors++
	return p.Visitors, nil
}

func (f *fakeRepo) DeletePage(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok {
		return "", models.ErrPageNotFound
	}
	delete(f.pages, id)
	return p.Fields[models.FieldSourceKey], nil
}

// Bucket with a fixed set of objects
type fakeFiles struct {
	objects  map[string]bool
	prefixes []string
}

func (f *fakeFiles) ObjectExists(ctx context.Context, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeFiles) DeleteObject(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) DeleteFolder(ctx context.Context, prefix string) (int, error) {
	f.prefixes = append(f.prefixes, prefix)
	deleted := 0
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeSuggester struct {
	suggestions map[string]string
	err         error
	calls       int
}

func (f *fakeSuggester) SuggestCopy(ctx context.Context, page *models.Page) (map[string]string, error) {
	f.calls++
	return f.suggestions, f.err
}

type stubMinter string

func (m stubMinter) Mint(ctx context.Context) (string, error) {
	return string(m), nil
}

func ptr(s string) *string {
	return &s
}

func seedPages() map[string]*models.Page {
	return map[string]*models.Page{
		"page-1": {
			ID:       "page-1",
			Status:   models.StatusDraft,
			Category: "p",
			OwnerID:  "user-1",
			PageType: "ebook",
			Fields: map[string]string{
				models.FieldTitle:        "Zdrowe Serce",
				models.FieldHeroHeadline: "Serce",
				models.FieldSourceKey:    "uploads/user-1/serce.pdf",
			},
		},
		"page-2": {
			ID:       "page-2",
			Status:   models.StatusActive,
			Category: "omega",
			URL:      ptr("https://partners.example.com/omega/Tok0000002/omega-guide"),
			OwnerID:  "user-2",
			PageType: "sales",
			Visitors: 5,
			Leads:    2,
			Fields:   map[string]string{models.FieldTitle: "Omega Guide"},
		},
		"page-3": {
			ID:       "page-3",
			Status:   models.StatusPending,
			Category: "sport",
			DraftURL: ptr("/preview/prevTok001"),
			OwnerID:  "user-1",
			PageType: "sales",
			Fields:   map[string]string{},
		},
	}
}

func newTestRdb(t *testing.T) (*rdb.Service, *miniredis.Miniredis, *config.Config) {
	t.Helper()

	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	if err != nil {
		t.Fatalf("invalid miniredis port; %v", err)
	}

	cfg := &config.Config{
		DefaultCategory: "p",
		DefaultSlug:     "strona",
		CacheTimeout:    time.Hour,
		RedisHost:       server.Host(),
		RedisPort:       port,
	}

	client, err := rdb.New(cfg)
	if err != nil {
		t.Fatalf("failed to create Redis client; %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client, server, cfg
}
