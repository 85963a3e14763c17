package store

import (
	"strings"

	"kfolx-backend-go/internal/models"
)

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"

	MaxSearchLimit = 24
	HomeLimit      = 12
	SimilarLimit   = 4
	LocationLimit  = 50
)

const categoryActive = 1

// representativeImage picks the first non-empty image by id. Every listing
// view uses this one rule.
const representativeImage = `(
  SELECT i.image_path FROM ad_images i
  WHERE i.ad_id = a.id AND i.image_path <> ''
  ORDER BY i.id ASC
  LIMIT 1
)`

const cardColumns = `a.id, a.user_id, a.category_id, c.name AS category_name, a.title, a.price,
  a.location, a.status, a.views, a.created_at, ` + representativeImage + ` AS image_path`

// NormalizeSort maps any unknown sort key to newest.
func NormalizeSort(sort string) string {
	switch sort {
	case SortOldest, SortPriceAsc, SortPriceDesc:
		return sort
	}
	return SortNewest
}

func orderBy(sort string) string {
	switch NormalizeSort(sort) {
	case SortOldest:
		return "a.created_at ASC, a.id ASC"
	case SortPriceAsc:
		return "a.price ASC, a.id DESC"
	case SortPriceDesc:
		return "a.price DESC, a.id DESC"
	}
	return "a.created_at DESC, a.id DESC"
}

// ClampPage bounds limit to (0, MaxSearchLimit] and offset to >= 0.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func searchWhere(filters models.SearchFilters) (string, []interface{}) {
	conditions := []string{"a.status = ?"}
	args := []interface{}{models.StatusActive}
	if title := strings.TrimSpace(filters.Title); title != "" {
		conditions = append(conditions, "LOWER(a.title) LIKE ?")
		args = append(args, containsPattern(title))
	}
	if location := strings.TrimSpace(filters.Location); location != "" {
		conditions = append(conditions, "LOWER(a.location) LIKE ?")
		args = append(args, containsPattern(location))
	}
	if filters.CategoryID > 0 {
		conditions = append(conditions, "a.category_id = ?")
		args = append(args, filters.CategoryID)
	}
	if filters.MinPrice > 0 {
		conditions = append(conditions, "a.price >= ?")
		args = append(args, filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		conditions = append(conditions, "a.price <= ?")
		args = append(args, filters.MaxPrice)
	}
	return strings.Join(conditions, " AND "), args
}

// BuildSearchQuery composes the listing query. Placeholders are '?' and must
// be rebound for the active driver.
func BuildSearchQuery(filters models.SearchFilters, limit, offset int) (string, []interface{}) {
	limit, offset = ClampPage(limit, offset)
	where, whereArgs := searchWhere(filters)
	args := append([]interface{}{categoryActive}, whereArgs...)
	args = append(args, limit, offset)
	query := `
SELECT ` + cardColumns + `
FROM ads a
INNER JOIN categories c ON c.id = a.category_id AND c.status = ?
WHERE ` + where + `
ORDER BY ` + orderBy(filters.Sort) + `
LIMIT ? OFFSET ?`
	return query, args
}

// BuildCountQuery counts the rows BuildSearchQuery pages over.
func BuildCountQuery(filters models.SearchFilters) (string, []interface{}) {
	where, whereArgs := searchWhere(filters)
	args := append([]interface{}{categoryActive}, whereArgs...)
	query := `
SELECT COUNT(*)
FROM ads a
INNER JOIN categories c ON c.id = a.category_id AND c.status = ?
WHERE ` + where
	return query, args
}

func containsPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(term)) + "%"
}
