package pages

import (
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
)

// Page-level columns, in scan order
var baseColumns = []string{
	"id",
	"status",
	"category",
	"url",
	"draft_url",
	"color",
	"x_amz_meta_page_type",
	"x_amz_meta_user_id",
	"visitors",
	"leads",
	"created_at",
}

// Content columns are unquoted, so Postgres folds them to lower case
var selectColumns = func() string {
	cols := append([]string{}, baseColumns...)
	for _, field := range models.ContentFields {
		cols = append(cols, strings.ToLower(field))
	}
	return strings.Join(cols, ", ")
}()

var getPageQuery = `
	SELECT ` + selectColumns + `
	FROM pages
	WHERE id = $1
`

var getPublishedQuery = `
	SELECT ` + selectColumns + `
	FROM pages
	WHERE status = 'active' AND (url LIKE $1 OR url LIKE $2)
	ORDER BY created_at DESC
	LIMIT 1
`

var getByDraftURLQuery = `
	SELECT ` + selectColumns + `
	FROM pages
	WHERE draft_url = $1
`

// %s is the WHERE clause
var listPagesQuery = `
	SELECT ` + selectColumns + `
	FROM pages
	WHERE %s
	ORDER BY created_at DESC
`

// %s is the SET clause, %d the position of the id
var updateFieldsQuery = `
	UPDATE pages
	SET %s
	WHERE id = $%d
	RETURNING ` + selectColumns

const setDraftURLQuery = `
	UPDATE pages
	SET draft_url = $2
	WHERE id = $1 AND draft_url IS NULL
`

const incrementVisitsQuery = `
	UPDATE pages
	SET visitors = visitors + 1
	WHERE id = $1
	RETURNING visitors
`

const deletePageQuery = `
	DELETE FROM pages
	WHERE id = $1
	RETURNING s3_file_key
`

const tokenExistsQuery = `
	SELECT EXISTS (
		SELECT 1 FROM pages
		WHERE url LIKE $1 OR draft_url = $2
	)
`
