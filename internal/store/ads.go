package store

import (
	"context"
	"time"

	"kfolx-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

func (g *SQLGateway) CreateAd(ctx context.Context, ad models.NewAd) (int64, error) {
	return insertID(ctx, g.q, `
INSERT INTO ads (user_id, category_id, title, description, price, location, phone, status, views, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		ad.UserID, ad.CategoryID, ad.Title, ad.Description, ad.Price, ad.Location, ad.Phone, models.StatusActive, time.Now().UTC())
}

// AttachImages inserts rows in input order so ids follow display order. Only
// the first row of a creation batch is flagged primary.
func (g *SQLGateway) AttachImages(ctx context.Context, adID int64, paths []string, markFirstPrimary bool) error {
	query := g.q.Rebind(`INSERT INTO ad_images (ad_id, image_path, is_primary, created_at) VALUES (?, ?, ?, ?)`)
	now := time.Now().UTC()
	for i, path := range paths {
		primary := 0
		if i == 0 && markFirstPrimary {
			primary = 1
		}
		if _, err := g.q.ExecContext(ctx, query, adID, path, primary, now); err != nil {
			return err
		}
	}
	return nil
}

func (g *SQLGateway) UpdateAd(ctx context.Context, adID, ownerID int64, upd models.AdUpdate) error {
	return execScoped(ctx, g.q, `
UPDATE ads
SET category_id = ?,
    title = ?,
    description = ?,
    price = ?,
    location = ?,
    phone = ?,
    status = ?,
    updated_at = ?
WHERE id = ? AND user_id = ?`,
		upd.CategoryID, upd.Title, upd.Description, upd.Price, upd.Location, upd.Phone, upd.Status, time.Now().UTC(), adID, ownerID)
}

// DeleteImages removes the given image rows of one ad and returns their
// stored paths so the caller can unlink the files. Ids belonging to another ad
// are ignored.
func (g *SQLGateway) DeleteImages(ctx context.Context, adID int64, imageIDs []int64) ([]string, error) {
	if len(imageIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT image_path FROM ad_images WHERE id IN (?) AND ad_id = ? ORDER BY id ASC`, imageIDs, adID)
	if err != nil {
		return nil, err
	}
	paths := []string{}
	if err := sqlx.SelectContext(ctx, g.q, &paths, g.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return paths, nil
	}
	query, args, err = sqlx.In(`DELETE FROM ad_images WHERE id IN (?) AND ad_id = ?`, imageIDs, adID)
	if err != nil {
		return nil, err
	}
	if _, err := g.q.ExecContext(ctx, g.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return paths, nil
}

// DeleteAd removes an owned ad with its image rows and returns the image paths.
func (g *SQLGateway) DeleteAd(ctx context.Context, adID, ownerID int64) ([]string, error) {
	var id int64
	if err := sqlx.GetContext(ctx, g.q, &id, g.q.Rebind(`SELECT id FROM ads WHERE id = ? AND user_id = ?`), adID, ownerID); err != nil {
		return nil, notFound(err)
	}
	paths := []string{}
	if err := sqlx.SelectContext(ctx, g.q, &paths, g.q.Rebind(`SELECT image_path FROM ad_images WHERE ad_id = ? ORDER BY id ASC`), adID); err != nil {
		return nil, err
	}
	if _, err := g.q.ExecContext(ctx, g.q.Rebind(`DELETE FROM ad_images WHERE ad_id = ?`), adID); err != nil {
		return nil, err
	}
	if err := execScoped(ctx, g.q, `DELETE FROM ads WHERE id = ? AND user_id = ?`, adID, ownerID); err != nil {
		return nil, err
	}
	return paths, nil
}

func (g *SQLGateway) SetStatus(ctx context.Context, adID, ownerID int64, status string) error {
	return execScoped(ctx, g.q, `UPDATE ads SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		status, time.Now().UTC(), adID, ownerID)
}

func (g *SQLGateway) OwnedAd(ctx context.Context, adID, ownerID int64) (models.Ad, error) {
	var ad models.Ad
	err := sqlx.GetContext(ctx, g.q, &ad, g.q.Rebind(`
SELECT a.id, a.user_id, a.category_id, c.name AS category_name, a.title, a.description, a.price,
       a.location, a.phone, a.status, a.views, a.created_at, a.updated_at,
       (SELECT COUNT(*) FROM ad_images i WHERE i.ad_id = a.id) AS image_count
FROM ads a
JOIN categories c ON c.id = a.category_id
WHERE a.id = ? AND a.user_id = ?`), adID, ownerID)
	return ad, notFound(err)
}

func (g *SQLGateway) ListImages(ctx context.Context, adID int64) ([]models.AdImage, error) {
	images := []models.AdImage{}
	err := sqlx.SelectContext(ctx, g.q, &images, g.q.Rebind(`
SELECT id, ad_id, image_path, is_primary, created_at
FROM ad_images
WHERE ad_id = ?
ORDER BY id ASC`), adID)
	return images, err
}

func (g *SQLGateway) CountImages(ctx context.Context, adID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, g.q, &count, g.q.Rebind(`SELECT COUNT(*) FROM ad_images WHERE ad_id = ?`), adID)
	return count, err
}

func (g *SQLGateway) CategoryActive(ctx context.Context, categoryID int64) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, g.q, &count, g.q.Rebind(`SELECT COUNT(*) FROM categories WHERE id = ? AND status = ?`), categoryID, categoryActive)
	return count > 0, err
}

// IncrementViews is a single unguarded statement; concurrent viewers may lose
// updates.
func (g *SQLGateway) IncrementViews(ctx context.Context, adID int64) error {
	_, err := g.q.ExecContext(ctx, g.q.Rebind(`UPDATE ads SET views = COALESCE(views, 0) + 1 WHERE id = ?`), adID)
	return err
}

func (g *SQLGateway) ActiveAd(ctx context.Context, adID int64) (models.AdDetail, error) {
	var ad models.AdDetail
	err := sqlx.GetContext(ctx, g.q, &ad, g.q.Rebind(`
SELECT a.id, a.user_id, a.category_id, c.name AS category_name, a.title, a.description, a.price,
       a.location, a.phone, a.status, a.views, a.created_at, a.updated_at,
       u.name AS user_name, u.email AS user_email, u.whatsapp AS user_whatsapp
FROM ads a
JOIN users u ON u.id = a.user_id
JOIN categories c ON c.id = a.category_id
WHERE a.id = ? AND a.status = ?`), adID, models.StatusActive)
	return ad, notFound(err)
}

func (g *SQLGateway) SimilarAds(ctx context.Context, categoryID, excludeID int64, limit int) ([]models.AdCard, error) {
	if limit <= 0 || limit > SimilarLimit {
		limit = SimilarLimit
	}
	cards := []models.AdCard{}
	err := sqlx.SelectContext(ctx, g.q, &cards, g.q.Rebind(`
SELECT `+cardColumns+`
FROM ads a
INNER JOIN categories c ON c.id = a.category_id AND c.status = ?
WHERE a.category_id = ? AND a.id <> ? AND a.status = ?
ORDER BY a.created_at DESC, a.id DESC
LIMIT ?`), categoryActive, categoryID, excludeID, models.StatusActive, limit)
	return cards, err
}

func (g *SQLGateway) SearchAds(ctx context.Context, filters models.SearchFilters, limit, offset int) ([]models.AdCard, error) {
	query, args := BuildSearchQuery(filters, limit, offset)
	cards := []models.AdCard{}
	err := sqlx.SelectContext(ctx, g.q, &cards, g.q.Rebind(query), args...)
	return cards, err
}

func (g *SQLGateway) CountAds(ctx context.Context, filters models.SearchFilters) (int, error) {
	query, args := BuildCountQuery(filters)
	var total int
	err := sqlx.GetContext(ctx, g.q, &total, g.q.Rebind(query), args...)
	return total, err
}

// UserAds lists every ad of a user regardless of category state. An empty
// status means all statuses.
func (g *SQLGateway) UserAds(ctx context.Context, userID int64, status string) ([]models.AdCard, error) {
	query := `
SELECT ` + cardColumns + `
FROM ads a
JOIN categories c ON c.id = a.category_id
WHERE a.user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND a.status = ?`
		args = append(args, status)
	}
	query += `
ORDER BY a.created_at DESC, a.id DESC`
	cards := []models.AdCard{}
	err := sqlx.SelectContext(ctx, g.q, &cards, g.q.Rebind(query), args...)
	return cards, err
}

func (g *SQLGateway) RecentUserAds(ctx context.Context, userID int64, limit int) ([]models.AdCard, error) {
	cards := []models.AdCard{}
	err := sqlx.SelectContext(ctx, g.q, &cards, g.q.Rebind(`
SELECT `+cardColumns+`
FROM ads a
JOIN categories c ON c.id = a.category_id
WHERE a.user_id = ?
ORDER BY a.created_at DESC, a.id DESC
LIMIT ?`), userID, limit)
	return cards, err
}

func (g *SQLGateway) UserAdStats(ctx context.Context, userID int64) (models.AdStats, error) {
	var stats models.AdStats
	err := sqlx.GetContext(ctx, g.q, &stats, g.q.Rebind(`
SELECT COUNT(*) AS total_ads,
       COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_ads,
       COALESCE(SUM(CASE WHEN status = 'sold' THEN 1 ELSE 0 END), 0) AS sold_ads,
       COALESCE(SUM(CASE WHEN status = 'inactive' THEN 1 ELSE 0 END), 0) AS inactive_ads,
       COALESCE(SUM(views), 0) AS total_views
FROM ads
WHERE user_id = ?`), userID)
	return stats, err
}

// Categories returns active categories with their active-ad counts.
func (g *SQLGateway) Categories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := sqlx.SelectContext(ctx, g.q, &categories, g.q.Rebind(`
SELECT c.id, c.name, COUNT(a.id) AS ad_count
FROM categories c
LEFT JOIN ads a ON a.category_id = c.id AND a.status = ?
WHERE c.status = ?
GROUP BY c.id, c.name
ORDER BY c.name ASC`), models.StatusActive, categoryActive)
	return categories, err
}

func (g *SQLGateway) Locations(ctx context.Context) ([]string, error) {
	locations := []string{}
	err := sqlx.SelectContext(ctx, g.q, &locations, g.q.Rebind(`
SELECT DISTINCT location
FROM ads
WHERE location IS NOT NULL AND location <> '' AND status = ?
ORDER BY location ASC
LIMIT ?`), models.StatusActive, LocationLimit)
	return locations, err
}

func (g *SQLGateway) KnownLocations(ctx context.Context) ([]string, error) {
	locations := []string{}
	err := sqlx.SelectContext(ctx, g.q, &locations, `SELECT name FROM locations ORDER BY name ASC`)
	return locations, err
}

func (g *SQLGateway) AllImagePaths(ctx context.Context) ([]models.AdImage, error) {
	images := []models.AdImage{}
	err := sqlx.SelectContext(ctx, g.q, &images, `
SELECT id, ad_id, image_path, is_primary, created_at
FROM ad_images
ORDER BY id ASC`)
	return images, err
}

func (g *SQLGateway) UpdateImagePath(ctx context.Context, imageID int64, path string) error {
	_, err := g.q.ExecContext(ctx, g.q.Rebind(`UPDATE ad_images SET image_path = ? WHERE id = ?`), path, imageID)
	return err
}
