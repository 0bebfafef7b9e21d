package categories

import (
	"context"
	"errors"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/database"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrInvalidCategory = errors.New("category name does not produce a valid slug")
	ErrCategoryExists  = errors.New("category already exists")
)

// Postgres unique_violation
const uniqueViolation = "23505"

type Repository struct {
	db database.Service
}

func New(db database.Service) *Repository {
	return &Repository{db: db}
}

// List categories, optionally narrowed by a search term
func (r *Repository) GetCategories(ctx context.Context, search string) (models.Categories, error) {

	rows, err := r.db.Query(ctx, listCategoriesQuery, escapeLike(strings.TrimSpace(search)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories models.Categories
	for rows.Next() {

		var category models.Category
		var shortDesc pgtype.Text
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &shortDesc); err != nil {
			return nil, err
		}

		category.ShortDesc = shortDesc.String
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// InsertCategory stores a new category under the slug of its name.
// The slug is what page addresses carry as their first segment.
func (r *Repository) InsertCategory(ctx context.Context, name, shortDesc string) (*models.Category, error) {

	category := models.Category{
		Name:      strings.TrimSpace(name),
		ShortDesc: strings.TrimSpace(shortDesc),
	}

	category.Slug = slug.Make(category.Name)
	if category.Slug == "" || !slug.IsSlug(category.Slug) {
		return nil, ErrInvalidCategory
	}

	var desc pgtype.Text
	if category.ShortDesc != "" {
		desc = pgtype.Text{String: category.ShortDesc, Valid: true}
	}

	err := r.db.QueryRow(ctx, insertCategoryQuery, category.Name, category.Slug, desc).Scan(&category.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, ErrCategoryExists
	}

	if err != nil {
		return nil, err
	}

	return &category, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
