package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"kfolx-backend-go/internal/models"
	"kfolx-backend-go/internal/store"
)

// fakeGateway is an in-memory store.Gateway. InTx restores a snapshot when
// fn fails.
type fakeGateway struct {
	users      map[int64]models.User
	ads        map[int64]models.Ad
	images     []models.AdImage
	categories map[int64]string
	inactive   map[int64]bool
	known      []string
	nextID     int64

	failAttach error
	failViews  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:      map[int64]models.User{},
		ads:        map[int64]models.Ad{},
		categories: map[int64]string{1: "Mobil", 2: "Elektronik"},
		inactive:   map[int64]bool{},
		known:      []string{"Bandung", "Jakarta"},
	}
}

func (g *fakeGateway) id() int64 {
	g.nextID++
	return g.nextID
}

type fakeSnapshot struct {
	ads    map[int64]models.Ad
	images []models.AdImage
}

func (g *fakeGateway) InTx(ctx context.Context, fn func(tx store.Ads) error) error {
	snap := fakeSnapshot{ads: map[int64]models.Ad{}, images: append([]models.AdImage(nil), g.images...)}
	for k, v := range g.ads {
		snap.ads[k] = v
	}
	if err := fn(g); err != nil {
		g.ads = snap.ads
		g.images = snap.images
		return err
	}
	return nil
}

func (g *fakeGateway) Ping(ctx context.Context) error { return nil }

func (g *fakeGateway) CreateAd(ctx context.Context, ad models.NewAd) (int64, error) {
	id := g.id()
	g.ads[id] = models.Ad{
		ID:           id,
		UserID:       ad.UserID,
		CategoryID:   ad.CategoryID,
		CategoryName: g.categories[ad.CategoryID],
		Title:        ad.Title,
		Description:  ad.Description,
		Price:        ad.Price,
		Location:     ad.Location,
		Phone:        ad.Phone,
		Status:       models.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	return id, nil
}

func (g *fakeGateway) AttachImages(ctx context.Context, adID int64, paths []string, markFirstPrimary bool) error {
	if g.failAttach != nil {
		return g.failAttach
	}
	for i, p := range paths {
		g.images = append(g.images, models.AdImage{ID: g.id(), AdID: adID, ImagePath: p, IsPrimary: i == 0 && markFirstPrimary})
	}
	return nil
}

func (g *fakeGateway) UpdateAd(ctx context.Context, adID, ownerID int64, upd models.AdUpdate) error {
	ad, ok := g.ads[adID]
	if !ok || ad.UserID != ownerID {
		return store.ErrNotFound
	}
	ad.CategoryID = upd.CategoryID
	ad.CategoryName = g.categories[upd.CategoryID]
	ad.Title = upd.Title
	ad.Description = upd.Description
	ad.Price = upd.Price
	ad.Location = upd.Location
	ad.Phone = upd.Phone
	ad.Status = upd.Status
	g.ads[adID] = ad
	return nil
}

func (g *fakeGateway) DeleteImages(ctx context.Context, adID int64, imageIDs []int64) ([]string, error) {
	drop := map[int64]bool{}
	for _, id := range imageIDs {
		drop[id] = true
	}
	var paths []string
	kept := g.images[:0:0]
	for _, img := range g.images {
		if img.AdID == adID && drop[img.ID] {
			paths = append(paths, img.ImagePath)
			continue
		}
		kept = append(kept, img)
	}
	g.images = kept
	return paths, nil
}

func (g *fakeGateway) DeleteAd(ctx context.Context, adID, ownerID int64) ([]string, error) {
	ad, ok := g.ads[adID]
	if !ok || ad.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	var ids []int64
	for _, img := range g.images {
		if img.AdID == adID {
			ids = append(ids, img.ID)
		}
	}
	paths, _ := g.DeleteImages(ctx, adID, ids)
	delete(g.ads, adID)
	return paths, nil
}

func (g *fakeGateway) SetStatus(ctx context.Context, adID, ownerID int64, status string) error {
	ad, ok := g.ads[adID]
	if !ok || ad.UserID != ownerID {
		return store.ErrNotFound
	}
	ad.Status = status
	g.ads[adID] = ad
	return nil
}

func (g *fakeGateway) OwnedAd(ctx context.Context, adID, ownerID int64) (models.Ad, error) {
	ad, ok := g.ads[adID]
	if !ok || ad.UserID != ownerID {
		return models.Ad{}, store.ErrNotFound
	}
	ad.ImageCount, _ = g.CountImages(ctx, adID)
	return ad, nil
}

func (g *fakeGateway) ListImages(ctx context.Context, adID int64) ([]models.AdImage, error) {
	out := []models.AdImage{}
	for _, img := range g.images {
		if img.AdID == adID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (g *fakeGateway) CountImages(ctx context.Context, adID int64) (int, error) {
	images, _ := g.ListImages(ctx, adID)
	return len(images), nil
}

func (g *fakeGateway) CategoryActive(ctx context.Context, categoryID int64) (bool, error) {
	_, ok := g.categories[categoryID]
	return ok && !g.inactive[categoryID], nil
}

func (g *fakeGateway) IncrementViews(ctx context.Context, adID int64) error {
	if g.failViews != nil {
		return g.failViews
	}
	ad := g.ads[adID]
	ad.Views++
	g.ads[adID] = ad
	return nil
}

func (g *fakeGateway) ActiveAd(ctx context.Context, adID int64) (models.AdDetail, error) {
	ad, ok := g.ads[adID]
	if !ok || ad.Status != models.StatusActive {
		return models.AdDetail{}, store.ErrNotFound
	}
	seller := g.users[ad.UserID]
	return models.AdDetail{Ad: ad, SellerName: seller.Name, SellerEmail: seller.Email, SellerWhatsapp: seller.Whatsapp}, nil
}

func (g *fakeGateway) card(ad models.Ad) models.AdCard {
	card := models.AdCard{
		ID:           ad.ID,
		UserID:       ad.UserID,
		CategoryID:   ad.CategoryID,
		CategoryName: ad.CategoryName,
		Title:        ad.Title,
		Price:        ad.Price,
		Location:     ad.Location,
		Status:       ad.Status,
		Views:        ad.Views,
		CreatedAt:    ad.CreatedAt,
	}
	for _, img := range g.images {
		if img.AdID == ad.ID && img.ImagePath != "" {
			p := img.ImagePath
			card.ImagePath = &p
			break
		}
	}
	return card
}

func (g *fakeGateway) sortedAds() []models.Ad {
	ads := make([]models.Ad, 0, len(g.ads))
	for _, ad := range g.ads {
		ads = append(ads, ad)
	}
	sort.Slice(ads, func(i, j int) bool { return ads[i].ID > ads[j].ID })
	return ads
}

func (g *fakeGateway) SimilarAds(ctx context.Context, categoryID, excludeID int64, limit int) ([]models.AdCard, error) {
	out := []models.AdCard{}
	for _, ad := range g.sortedAds() {
		if ad.CategoryID == categoryID && ad.ID != excludeID && ad.Status == models.StatusActive && len(out) < limit {
			out = append(out, g.card(ad))
		}
	}
	return out, nil
}

func (g *fakeGateway) matches(ad models.Ad, f models.SearchFilters) bool {
	if ad.Status != models.StatusActive || g.inactive[ad.CategoryID] {
		return false
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(ad.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(ad.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.CategoryID > 0 && ad.CategoryID != f.CategoryID {
		return false
	}
	if f.MinPrice > 0 && ad.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && ad.Price > f.MaxPrice {
		return false
	}
	return true
}

func (g *fakeGateway) SearchAds(ctx context.Context, filters models.SearchFilters, limit, offset int) ([]models.AdCard, error) {
	out := []models.AdCard{}
	for _, ad := range g.sortedAds() {
		if g.matches(ad, filters) {
			out = append(out, g.card(ad))
		}
	}
	if offset >= len(out) {
		return []models.AdCard{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *fakeGateway) CountAds(ctx context.Context, filters models.SearchFilters) (int, error) {
	n := 0
	for _, ad := range g.ads {
		if g.matches(ad, filters) {
			n++
		}
	}
	return n, nil
}

func (g *fakeGateway) UserAds(ctx context.Context, userID int64, status string) ([]models.AdCard, error) {
	out := []models.AdCard{}
	for _, ad := range g.sortedAds() {
		if ad.UserID == userID && (status == "" || ad.Status == status) {
			out = append(out, g.card(ad))
		}
	}
	return out, nil
}

func (g *fakeGateway) RecentUserAds(ctx context.Context, userID int64, limit int) ([]models.AdCard, error) {
	cards, _ := g.UserAds(ctx, userID, "")
	if len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}

func (g *fakeGateway) UserAdStats(ctx context.Context, userID int64) (models.AdStats, error) {
	var stats models.AdStats
	for _, ad := range g.ads {
		if ad.UserID != userID {
			continue
		}
		stats.Total++
		stats.TotalViews += ad.Views
		switch ad.Status {
		case models.StatusActive:
			stats.Active++
		case models.StatusSold:
			stats.Sold++
		case models.StatusInactive:
			stats.Inactive++
		}
	}
	return stats, nil
}

func (g *fakeGateway) Categories(ctx context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for id, name := range g.categories {
		if g.inactive[id] {
			continue
		}
		count := 0
		for _, ad := range g.ads {
			if ad.CategoryID == id && ad.Status == models.StatusActive {
				count++
			}
		}
		out = append(out, models.Category{ID: id, Name: name, AdCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (g *fakeGateway) Locations(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, ad := range g.ads {
		if ad.Status == models.StatusActive && !seen[ad.Location] {
			seen[ad.Location] = true
			out = append(out, ad.Location)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (g *fakeGateway) KnownLocations(ctx context.Context) ([]string, error) {
	return g.known, nil
}

func (g *fakeGateway) AllImagePaths(ctx context.Context) ([]models.AdImage, error) {
	return append([]models.AdImage(nil), g.images...), nil
}

func (g *fakeGateway) UpdateImagePath(ctx context.Context, imageID int64, path string) error {
	for i := range g.images {
		if g.images[i].ID == imageID {
			g.images[i].ImagePath = path
			return nil
		}
	}
	return store.ErrNotFound
}

func (g *fakeGateway) CreateUser(ctx context.Context, user models.NewUser) (int64, error) {
	email := strings.ToLower(user.Email)
	for _, u := range g.users {
		if u.Email == email {
			return 0, store.ErrConflict
		}
	}
	id := g.id()
	whatsapp := user.Whatsapp
	g.users[id] = models.User{
		ID:           id,
		Name:         user.Name,
		Email:        email,
		PasswordHash: user.PasswordHash,
		Whatsapp:     &whatsapp,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	return id, nil
}

func (g *fakeGateway) UserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range g.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (g *fakeGateway) UserByID(ctx context.Context, id int64) (models.User, error) {
	u, ok := g.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (g *fakeGateway) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	u, ok := g.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	g.users[id] = u
	return nil
}

func (g *fakeGateway) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error {
	u, ok := g.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Name = upd.Name
	u.Phone = upd.Phone
	u.Address = upd.Address
	g.users[id] = u
	return nil
}

func (g *fakeGateway) SetProfilePicture(ctx context.Context, id int64, path string) error {
	u, ok := g.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.ProfilePicture = &path
	g.users[id] = u
	return nil
}

func (g *fakeGateway) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, ok := g.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	g.users[id] = u
	return nil
}

var _ store.Gateway = (*fakeGateway)(nil)
