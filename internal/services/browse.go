package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"kfolx-backend-go/internal/models"
	"kfolx-backend-go/internal/store"
)

const (
	myAdsTabAll   = "all"
	recentProfile = 5
)

// AdCardView is a listing card ready for display.
type AdCardView struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	PriceLabel   string    `json:"priceLabel"`
	Location     string    `json:"location"`
	CategoryID   int64     `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	CategoryIcon string    `json:"categoryIcon"`
	Status       string    `json:"status"`
	Views        int64     `json:"views"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	TimeAgo      string    `json:"timeAgo"`
}

type ImageView struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

type SellerView struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Whatsapp *string `json:"whatsapp,omitempty"`
}

type AdDetailView struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	PriceLabel   string       `json:"priceLabel"`
	Location     string       `json:"location"`
	Phone        *string      `json:"phone,omitempty"`
	Status       string       `json:"status"`
	Views        int64        `json:"views"`
	CategoryID   int64        `json:"categoryId"`
	CategoryName string       `json:"categoryName"`
	CategoryIcon string       `json:"categoryIcon"`
	CreatedAt    time.Time    `json:"createdAt"`
	TimeAgo      string       `json:"timeAgo"`
	Images       []ImageView  `json:"images"`
	Seller       SellerView   `json:"seller"`
	Similar      []AdCardView `json:"similar"`
}

type CategoryView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	AdCount int    `json:"adCount"`
}

type SearchPage struct {
	Items      []AdCardView `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
	Sort       string       `json:"sort"`
}

type HomePage struct {
	Categories []CategoryView `json:"categories"`
	Recent     []AdCardView   `json:"recent"`
	Locations  []string       `json:"locations"`
}

type MyAdsPage struct {
	Status string         `json:"status"`
	Items  []AdCardView   `json:"items"`
	Stats  models.AdStats `json:"stats"`
}

type EditForm struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Location    string         `json:"location"`
	Phone       *string        `json:"phone,omitempty"`
	Status      string         `json:"status"`
	CategoryID  int64          `json:"categoryId"`
	Images      []ImageView    `json:"images"`
	Categories  []CategoryView `json:"categories"`
	MaxNew      int            `json:"maxNewImages"`
}

// Detail loads an active ad and counts the view. A failed view increment is
// logged and does not fail the page.
func (s *AdService) Detail(ctx context.Context, adID int64) (AdDetailView, error) {
	ad, err := s.Store.ActiveAd(ctx, adID)
	if errors.Is(err, store.ErrNotFound) {
		return AdDetailView{}, ErrNotFound("Iklan tidak ditemukan")
	}
	if err != nil {
		return AdDetailView{}, ErrPersistence("ads: detail", err)
	}
	if err := s.Store.IncrementViews(ctx, adID); err != nil {
		logBestEffort("ads: views", err)
	} else {
		ad.Views++
	}

	images, err := s.Store.ListImages(ctx, adID)
	if err != nil {
		return AdDetailView{}, ErrPersistence("ads: detail images", err)
	}
	similar, err := s.Store.SimilarAds(ctx, ad.CategoryID, ad.ID, store.SimilarLimit)
	if err != nil {
		return AdDetailView{}, ErrPersistence("ads: similar", err)
	}

	now := time.Now()
	return AdDetailView{
		ID:           ad.ID,
		Title:        ad.Title,
		Description:  ad.Description,
		Price:        ad.Price,
		PriceLabel:   FormatPrice(ad.Price),
		Location:     ad.Location,
		Phone:        ad.Phone,
		Status:       ad.Status,
		Views:        ad.Views,
		CategoryID:   ad.CategoryID,
		CategoryName: ad.CategoryName,
		CategoryIcon: CategoryIcon(ad.CategoryName),
		CreatedAt:    ad.CreatedAt,
		TimeAgo:      TimeAgo(ad.CreatedAt, now),
		Images:       s.imageViews(images),
		Seller: SellerView{
			ID:       ad.UserID,
			Name:     ad.SellerName,
			Email:    ad.SellerEmail,
			Whatsapp: ad.SellerWhatsapp,
		},
		Similar: s.cardViews(similar, now),
	}, nil
}

// Search pages through active ads. Pages start at 1.
func (s *AdService) Search(ctx context.Context, filters models.SearchFilters, page int) (SearchPage, error) {
	if page < 1 {
		page = 1
	}
	filters.Title = strings.TrimSpace(filters.Title)
	filters.Location = strings.TrimSpace(filters.Location)
	filters.Sort = store.NormalizeSort(filters.Sort)

	total, err := s.Store.CountAds(ctx, filters)
	if err != nil {
		return SearchPage{}, ErrPersistence("ads: count", err)
	}
	cards, err := s.Store.SearchAds(ctx, filters, store.MaxSearchLimit, (page-1)*store.MaxSearchLimit)
	if err != nil {
		return SearchPage{}, ErrPersistence("ads: search", err)
	}
	return SearchPage{
		Items:      s.cardViews(cards, time.Now()),
		Total:      total,
		Page:       page,
		PageSize:   store.MaxSearchLimit,
		TotalPages: (total + store.MaxSearchLimit - 1) / store.MaxSearchLimit,
		Sort:       filters.Sort,
	}, nil
}

func (s *AdService) Home(ctx context.Context) (HomePage, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return HomePage{}, err
	}
	recent, err := s.Store.SearchAds(ctx, models.SearchFilters{Sort: store.SortNewest}, store.HomeLimit, 0)
	if err != nil {
		return HomePage{}, ErrPersistence("ads: home", err)
	}
	locations, err := s.Store.Locations(ctx)
	if err != nil {
		return HomePage{}, ErrPersistence("ads: locations", err)
	}
	return HomePage{
		Categories: categories,
		Recent:     s.cardViews(recent, time.Now()),
		Locations:  locations,
	}, nil
}

// MyAds lists every ad of the owner for one status tab. Unknown tabs show all.
func (s *AdService) MyAds(ctx context.Context, ownerID int64, status string) (MyAdsPage, error) {
	filter := ""
	if models.ValidStatus(status) {
		filter = status
	}
	cards, err := s.Store.UserAds(ctx, ownerID, filter)
	if err != nil {
		return MyAdsPage{}, ErrPersistence("ads: my ads", err)
	}
	stats, err := s.Store.UserAdStats(ctx, ownerID)
	if err != nil {
		return MyAdsPage{}, ErrPersistence("ads: stats", err)
	}
	tab := filter
	if tab == "" {
		tab = myAdsTabAll
	}
	return MyAdsPage{Status: tab, Items: s.cardViews(cards, time.Now()), Stats: stats}, nil
}

func (s *AdService) EditForm(ctx context.Context, adID, ownerID int64) (EditForm, error) {
	ad, err := s.Store.OwnedAd(ctx, adID, ownerID)
	if err != nil {
		return EditForm{}, s.ownedErr("ads: edit form", err)
	}
	images, err := s.Store.ListImages(ctx, adID)
	if err != nil {
		return EditForm{}, ErrPersistence("ads: edit form images", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return EditForm{}, err
	}
	maxNew := MaxAdImages - len(images)
	if maxNew < 0 {
		maxNew = 0
	}
	return EditForm{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Price:       ad.Price,
		Location:    ad.Location,
		Phone:       ad.Phone,
		Status:      ad.Status,
		CategoryID:  ad.CategoryID,
		Images:      s.imageViews(images),
		Categories:  categories,
		MaxNew:      maxNew,
	}, nil
}

func (s *AdService) Categories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.Store.Categories(ctx)
	if err != nil {
		return nil, ErrPersistence("ads: categories", err)
	}
	views := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, CategoryView{ID: c.ID, Name: c.Name, Icon: CategoryIcon(c.Name), AdCount: c.AdCount})
	}
	return views, nil
}

// Locations merges locations of active ads with the seeded city list.
func (s *AdService) Locations(ctx context.Context) ([]string, error) {
	active, err := s.Store.Locations(ctx)
	if err != nil {
		return nil, ErrPersistence("ads: locations", err)
	}
	known, err := s.Store.KnownLocations(ctx)
	if err != nil {
		return nil, ErrPersistence("ads: known locations", err)
	}
	seen := map[string]bool{}
	merged := make([]string, 0, len(active)+len(known))
	for _, list := range [][]string{active, known} {
		for _, loc := range list {
			key := strings.ToLower(strings.TrimSpace(loc))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, loc)
		}
	}
	return merged, nil
}

func (s *AdService) cardViews(cards []models.AdCard, now time.Time) []AdCardView {
	return cardViews(s.Images.Resolver, cards, now)
}

func cardViews(resolver Resolver, cards []models.AdCard, now time.Time) []AdCardView {
	views := make([]AdCardView, 0, len(cards))
	for _, c := range cards {
		view := AdCardView{
			ID:           c.ID,
			Title:        c.Title,
			Price:        c.Price,
			PriceLabel:   FormatPrice(c.Price),
			Location:     c.Location,
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			CategoryIcon: CategoryIcon(c.CategoryName),
			Status:       c.Status,
			Views:        c.Views,
			CreatedAt:    c.CreatedAt,
			TimeAgo:      TimeAgo(c.CreatedAt, now),
		}
		if c.ImagePath != nil {
			view.ImageURL = imageURL(resolver, *c.ImagePath)
		}
		views = append(views, view)
	}
	return views
}

func (s *AdService) imageViews(images []models.AdImage) []ImageView {
	views := make([]ImageView, 0, len(images))
	for _, img := range images {
		if img.ImagePath == "" {
			continue
		}
		views = append(views, ImageView{
			ID:        img.ID,
			URL:       imageURL(s.Images.Resolver, img.ImagePath),
			IsPrimary: img.IsPrimary,
		})
	}
	return views
}

func imageURL(resolver Resolver, raw string) string {
	resolved := resolver.ResolveDisplayPath(raw)
	if resolved == "" {
		return ""
	}
	return "/" + strings.TrimPrefix(resolved, "/")
}
