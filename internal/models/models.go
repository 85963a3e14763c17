package models

import "time"

const (
	StatusActive   = "active"
	StatusSold     = "sold"
	StatusInactive = "inactive"
)

// ValidStatus reports whether status is one of the three ad states.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusSold, StatusInactive:
		return true
	}
	return false
}

type User struct {
	ID             int64      `db:"id"`
	Name           string     `db:"name"`
	Email          string     `db:"email"`
	PasswordHash   string     `db:"password"`
	Whatsapp       *string    `db:"whatsapp"`
	Phone          *string    `db:"phone"`
	Address        *string    `db:"address"`
	ProfilePicture *string    `db:"profile_picture"`
	IsActive       bool       `db:"is_active"`
	LastLogin      *time.Time `db:"last_login"`
	CreatedAt      time.Time  `db:"created_at"`
}

type NewUser struct {
	Name         string
	Email        string
	Whatsapp     string
	PasswordHash string
}

type ProfileUpdate struct {
	Name    string
	Phone   *string
	Address *string
}

type Category struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	AdCount int    `db:"ad_count"`
}

type Ad struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	CategoryID   int64      `db:"category_id"`
	CategoryName string     `db:"category_name"`
	Title        string     `db:"title"`
	Description  string     `db:"description"`
	Price        float64    `db:"price"`
	Location     string     `db:"location"`
	Phone        *string    `db:"phone"`
	Status       string     `db:"status"`
	Views        int64      `db:"views"`
	ImageCount   int        `db:"image_count"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

// AdDetail is an active ad joined with its seller.
type AdDetail struct {
	Ad
	SellerName     string  `db:"user_name"`
	SellerEmail    string  `db:"user_email"`
	SellerWhatsapp *string `db:"user_whatsapp"`
}

// AdCard is one row of a listing grid.
type AdCard struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	CategoryID   int64     `db:"category_id"`
	CategoryName string    `db:"category_name"`
	Title        string    `db:"title"`
	Price        float64   `db:"price"`
	Location     string    `db:"location"`
	Status       string    `db:"status"`
	Views        int64     `db:"views"`
	ImagePath    *string   `db:"image_path"`
	CreatedAt    time.Time `db:"created_at"`
}

type NewAd struct {
	UserID      int64
	CategoryID  int64
	Title       string
	Description string
	Price       float64
	Location    string
	Phone       *string
}

type AdUpdate struct {
	CategoryID  int64
	Title       string
	Description string
	Price       float64
	Location    string
	Phone       *string
	Status      string
}

type AdImage struct {
	ID        int64     `db:"id"`
	AdID      int64     `db:"ad_id"`
	ImagePath string    `db:"image_path"`
	IsPrimary bool      `db:"is_primary"`
	CreatedAt time.Time `db:"created_at"`
}

type AdStats struct {
	Total      int   `db:"total_ads"`
	Active     int   `db:"active_ads"`
	Sold       int   `db:"sold_ads"`
	Inactive   int   `db:"inactive_ads"`
	TotalViews int64 `db:"total_views"`
}

// SearchFilters are the optional listing filters; zero values mean unset.
type SearchFilters struct {
	Title      string
	Location   string
	CategoryID int64
	MinPrice   float64
	MaxPrice   float64
	Sort       string
}
