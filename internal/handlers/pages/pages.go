package pages

import (
	"context"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/integrations/s3store"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
)

// PageStore is the part of the pages repository the handlers read and delete with
type PageStore interface {
	GetPage(ctx context.Context, id string) (*models.Page, error)
	ListPages(ctx context.Context, filter models.PageFilter) (models.Pages, error)
	GetPublished(ctx context.Context, category, token string) (*models.Page, error)
	GetByDraftURL(ctx context.Context, draftURL string) (*models.Page, error)
	IncrementVisits(ctx context.Context, id string) (int, error)
	DeletePage(ctx context.Context, id string) (string, error)
}

// Publisher commits edits to an already loaded page and hands out preview addresses
type Publisher interface {
	CommitLoaded(ctx context.Context, current *models.Page, changes map[string]string, origin publish.Origin) (*models.Page, error)
	EnsurePreview(ctx context.Context, pageID string) (string, error)
}

// Suggester drafts new landing copy for a page
type Suggester interface {
	SuggestCopy(ctx context.Context, page *models.Page) (map[string]string, error)
}

type Service struct {
	pagesRepo PageStore
	publisher Publisher
	rdb       *rdb.Service
	files     s3store.Service
	suggester Suggester
	config    *config.Config
}

// New creates the pages handlers.
// files and suggester are optional, their endpoints degrade without them.
func New(
	pagesRepo PageStore,
	publisher Publisher,
	rdb *rdb.Service,
	files s3store.Service,
	suggester Suggester,
	config *config.Config,
) *Service {
	return &Service{
		pagesRepo: pagesRepo,
		publisher: publisher,
		rdb:       rdb,
		files:     files,
		suggester: suggester,
		config:    config,
	}
}
