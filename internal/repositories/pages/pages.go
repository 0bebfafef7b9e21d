package pages

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/database"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type Repository struct {
	db database.Service
}

func New(db database.Service) *Repository {
	return &Repository{db: db}
}

// Get single page by id
func (r *Repository) GetPage(ctx context.Context, id string) (*models.Page, error) {
	page, err := scanPage(r.db.QueryRow(ctx, getPageQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPageNotFound
	}
	return page, err
}

// UpdateFields writes every field in a single UPDATE and returns the new row.
// Unknown columns are refused before reaching the database.
func (r *Repository) UpdateFields(ctx context.Context, id string, fields map[string]string) (*models.Page, error) {

	if len(fields) == 0 {
		return nil, errors.New("no fields to update")
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !writable(column) {
			return nil, fmt.Errorf("column %q can not be updated", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", strings.ToLower(column), i+1)
		args = append(args, fields[column])
	}
	args = append(args, id)

	query := fmt.Sprintf(updateFieldsQuery, strings.Join(sets, ", "), len(args))
	page, err := scanPage(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPageNotFound
	}

	return page, err
}

// ListPages returns the pages matching the filter, newest first
func (r *Repository) ListPages(ctx context.Context, filter models.PageFilter) (models.Pages, error) {

	conditions := []string{"1=1"}
	var args []any

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.OwnerID != "" {
		add("x_amz_meta_user_id = $%d", filter.OwnerID)
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	if filter.PageType != "" {
		add("x_amz_meta_page_type = $%d", filter.PageType)
	}

	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		args = append(args, pattern)
		conditions = append(conditions, fmt.Sprintf(
			"(x_amz_meta_title ILIKE $%[1]d OR pagecontent_hero_headline ILIKE $%[1]d)",
			len(args),
		))
	}

	query := fmt.Sprintf(listPagesQuery, strings.Join(conditions, " AND "))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages models.Pages
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pages, nil
}

// GetPublished resolves an active page by the category and token of its address.
// Both arrive decoded and are escaped the way addresses are stored.
func (r *Repository) GetPublished(ctx context.Context, category, token string) (*models.Page, error) {
	prefix := "%" + escapeLike(publish.AddressPath(category, token))
	page, err := scanPage(r.db.QueryRow(ctx, getPublishedQuery, prefix+"/%", prefix))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPageNotFound
	}
	return page, err
}

// GetByDraftURL resolves a page by its preview path
func (r *Repository) GetByDraftURL(ctx context.Context, draftURL string) (*models.Page, error) {
	page, err := scanPage(r.db.QueryRow(ctx, getByDraftURLQuery, draftURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPageNotFound
	}
	return page, err
}

// SetDraftURL stores the preview path only when the page has none yet
func (r *Repository) SetDraftURL(ctx context.Context, id, draftURL string) (bool, error) {
	rowsAffected, err := r.db.Exec(ctx, setDraftURLQuery, id, draftURL)
	return rowsAffected == 1, err
}

// Bump the visitors counter
func (r *Repository) IncrementVisits(ctx context.Context, id string) (int, error) {
	var visitors int
	err := r.db.QueryRow(ctx, incrementVisitsQuery, id).Scan(&visitors)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrPageNotFound
	}
	return visitors, err
}

// DeletePage removes the row and returns the key of its source document, if any
func (r *Repository) DeletePage(ctx context.Context, id string) (string, error) {
	var sourceKey pgtype.Text
	err := r.db.QueryRow(ctx, deletePageQuery, id).Scan(&sourceKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrPageNotFound
	}
	return sourceKey.String, err
}

// TokenExists reports whether any public or preview address carries the token
func (r *Repository) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	pattern := "%/" + escapeLike(token) + "/%"
	err := r.db.QueryRow(ctx, tokenExistsQuery, pattern, "/preview/"+token).Scan(&exists)
	return exists, err
}

func writable(column string) bool {
	switch column {
	case models.FieldStatus, models.FieldCategory, models.FieldColor, models.FieldURL:
		return true
	}
	return models.IsContentField(column)
}

// escapeLike neutralizes the LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanPage(row pgx.Row) (*models.Page, error) {

	var page models.Page
	var status string
	var category, url, draftURL, color, kind, owner pgtype.Text
	var createdAt time.Time

	contents := make([]pgtype.Text, len(models.ContentFields))
	dest := []any{
		&page.ID,
		&status,
		&category,
		&url,
		&draftURL,
		&color,
		&kind,
		&owner,
		&page.Visitors,
		&page.Leads,
		&createdAt,
	}

	for i := range contents {
		dest = append(dest, &contents[i])
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	page.Status = models.Status(status)
	page.Category = category.String
	page.Color = color.String
	page.PageType = kind.String
	page.OwnerID = owner.String
	page.CreatedAt = &createdAt

	if url.Valid {
		page.URL = &url.String
	}

	if draftURL.Valid {
		page.DraftURL = &draftURL.String
	}

	page.Fields = make(map[string]string)
	for i, field := range models.ContentFields {
		if contents[i].Valid {
			page.Fields[field] = contents[i].String
		}
	}

	return &page, nil
}
