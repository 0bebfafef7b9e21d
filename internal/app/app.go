package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/database"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/handlers/categories"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/handlers/misc"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/handlers/pages"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/integrations/gemini"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/integrations/s3store"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/middlewares"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
	catsRepo "github.com/MarcinMove37ai/hps-app-sub002/internal/repositories/categories"
	pagesRepo "github.com/MarcinMove37ai/hps-app-sub002/internal/repositories/pages"
)

type App struct {
	pages      *pages.Service
	categories *categories.Service
	misc       *misc.Service
	mw         *middlewares.Service
	cleanup    func() error

	host   string
	server *http.Server
}

// Create new app with all of its services
func New() *App {

	// Init config
	cfg := config.New()

	// Create database service
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("couldn't create DB service; %v", err)
	}

	// Create Redis service
	rdb, err := rdb.New(cfg)
	if err != nil {
		log.Fatalf("couldn't create Redis service; %v", err)
	}

	// Create DB repositories
	pagesRepo := pagesRepo.New(db)
	catsRepo := catsRepo.New(db)

	// Tokens are checked against every stored address before use
	minter := publish.NewUniqueMinter(
		publish.NanoidMinter{Length: cfg.TokenLength},
		pagesRepo,
		cfg.TokenAttempts,
	)

	allocator := publish.NewAllocator(minter, cfg.DefaultCategory, cfg.DefaultSlug)
	publisher := publish.New(pagesRepo, allocator, minter, cfg.DefaultSlug)

	// Storage and suggestions are optional
	ctx := context.Background()
	files, err := s3store.New(ctx, cfg)
	if err != nil {
		log.Printf("Running without source document storage; %v", err)
	}

	var suggester pages.Suggester
	if g, err := gemini.New(ctx, cfg, rdb); err != nil {
		log.Printf("Running without copy suggestions; %v", err)
	} else {
		suggester = g
	}

	return &App{
		pages:      pages.New(pagesRepo, publisher, rdb, files, suggester, cfg),
		categories: categories.New(catsRepo, rdb, cfg),
		misc:       misc.New(cfg, db, rdb),
		mw:         middlewares.New(cfg),
		cleanup: func() error {
			db.Close()
			return rdb.Close()
		},

		host: cfg.Host,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute, // suggestions wait on the model
		},
	}
}
