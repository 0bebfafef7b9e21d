package categories

import (
	"context"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
)

// Cache key of the full category list
const categoriesKey = "categories"

type Store interface {
	GetCategories(ctx context.Context, search string) (models.Categories, error)
	InsertCategory(ctx context.Context, name, shortDesc string) (*models.Category, error)
}

type Service struct {
	catsRepo Store
	rdb      *rdb.Service
	config   *config.Config
}

func New(catsRepo Store, rdb *rdb.Service, config *config.Config) *Service {
	return &Service{
		catsRepo: catsRepo,
		rdb:      rdb,
		config:   config,
	}
}
