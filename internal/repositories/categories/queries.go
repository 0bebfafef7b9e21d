package categories

const listCategoriesQuery = `
	SELECT id, name, slug, short_desc
	FROM category
	WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR short_desc ILIKE '%' || $1 || '%'
	ORDER BY name ASC
`

const insertCategoryQuery = `
	INSERT INTO category (name, slug, short_desc)
	VALUES ($1, $2, $3)
	RETURNING id
`
