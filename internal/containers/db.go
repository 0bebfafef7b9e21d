// Package containers provides test container utilities
package containers

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type dbContainer struct {
	container *postgres.PostgresContainer
}

// SetupTestDB creates a PostgreSQL container, runs the migrations,
// seeds a few pages and points the config at the container.
func SetupTestDB(ctx context.Context, cfg *config.Config, projectRoot string) (Container, error) {

	migrationsDir := filepath.Join(projectRoot, "migrations")
	initScripts, err := getMigrationFiles(migrationsDir)
	if err != nil {
		return nil, err
	}

	if cfg.DBDatabase == "" {
		cfg.DBDatabase = "pages_test"
	}
	if cfg.DBUsername == "" {
		cfg.DBUsername = "pages"
	}
	if cfg.DBPassword == "" {
		cfg.DBPassword = "pages"
	}

	container, err := postgres.Run(ctx, "postgres:16.3",
		postgres.WithSQLDriver("pgx"),
		postgres.WithInitScripts(initScripts...),
		postgres.WithDatabase(cfg.DBDatabase),
		postgres.WithUsername(cfg.DBUsername),
		postgres.WithPassword(cfg.DBPassword),
		postgres.BasicWaitStrategies(),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	c := &dbContainer{container}

	host, err := container.Host(ctx)
	if err != nil {
		c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg.DBHost = host
	cfg.DBPort = port.Int()
	cfg.DBSSLMode = "disable"

	if err := seedTestData(ctx, cfg); err != nil {
		c.Terminate(ctx)
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return c, nil
}

// Terminate stops and removes the container
func (db *dbContainer) Terminate(ctx context.Context) {
	if err := db.container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}
}

func seedTestData(ctx context.Context, cfg *config.Config) error {

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DBUsername, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBDatabase)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	queries := []string{
		`INSERT INTO category (name, slug) VALUES
			('Omega 3', 'omega-3'),
			('Sport', 'sport')`,

		`INSERT INTO pages (id, status, category, url, color, x_amz_meta_page_type,
			x_amz_meta_user_id, x_amz_meta_title, pagecontent_hero_headline, s3_file_key) VALUES
			('page-draft', 'draft', 'p', NULL, 'harmonia', 'ebook', 'user-1',
				'Zdrowe Serce', 'Headline one', 'uploads/user-1/serce.pdf'),
			('page-active', 'active', 'omega', 'https://partners.example.com/omega/Tok0000001/omega-guide',
				'pewnosc', 'sales', 'user-1', 'Omega Guide', 'Headline two', NULL),
			('page-other', 'pending', 'sport', NULL, 'witalnosc', 'ebook', 'user-2',
				'Sport', 'Headline three', NULL)`,
	}

	for _, query := range queries {
		if _, err := pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	log.Println("Test data seeded successfully")
	return nil
}

// getMigrationFiles returns the *up.sql files in lexical order
func getMigrationFiles(migrationsDir string) ([]string, error) {
	var migrations []string

	err := filepath.Walk(migrationsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(info.Name(), "up.sql") {
			migrations = append(migrations, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(migrations)
	return migrations, nil
}
