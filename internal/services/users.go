package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"kfolx-backend-go/internal/models"
	"kfolx-backend-go/internal/store"
)

const (
	msgBadCredentials = "Email atau password salah"
	msgAccountBlocked = "Akun Anda dinonaktifkan. Silakan hubungi administrator."
	msgUserNotFound   = "Pengguna tidak ditemukan"
	displayNameGuest  = "Pengguna"
)

var profilePictureExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// UserStore is the part of the gateway the account pages need.
type UserStore interface {
	store.Users
	UserAdStats(ctx context.Context, userID int64) (models.AdStats, error)
	RecentUserAds(ctx context.Context, userID int64, limit int) ([]models.AdCard, error)
}

type UserService struct {
	Store  UserStore
	Tokens TokenService
	Images ImageStore
}

func NewUserService(st UserStore, tokens TokenService, images ImageStore) *UserService {
	return &UserService{Store: st, Tokens: tokens, Images: images}
}

type UserView struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	DisplayName    string     `json:"displayName"`
	Email          string     `json:"email"`
	Whatsapp       *string    `json:"whatsapp,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Contact        string     `json:"contact,omitempty"`
	Address        *string    `json:"address,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Session struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	User         UserView `json:"user"`
}

type ProfilePage struct {
	User   UserView       `json:"user"`
	Stats  models.AdStats `json:"stats"`
	Recent []AdCardView   `json:"recent"`
}

type ProfileInput struct {
	Name    string
	Phone   string
	Address string
}

type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (Session, error) {
	if errs := validateRegister(input); len(errs) > 0 {
		return Session{}, ErrValidation(errs)
	}
	hash, err := s.Tokens.HashPassword(input.Password)
	if err != nil {
		return Session{}, ErrPersistence("users: hash", err)
	}
	id, err := s.Store.CreateUser(ctx, models.NewUser{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		Whatsapp:     strings.TrimSpace(input.Whatsapp),
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrConflict) {
		return Session{}, ErrValidation(map[string]string{"email": "Email sudah terdaftar"})
	}
	if err != nil {
		return Session{}, ErrPersistence("users: register", err)
	}
	user, err := s.Store.UserByID(ctx, id)
	if err != nil {
		return Session{}, ErrPersistence("users: register", err)
	}
	return s.session(user)
}

// Login answers one generic message for unknown emails and wrong passwords.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	errs := map[string]string{}
	if !validEmail(email) {
		errs["email"] = "Email tidak valid"
	}
	if password == "" {
		errs["password"] = "Password harus diisi"
	}
	if len(errs) > 0 {
		return Session{}, ErrValidation(errs)
	}

	user, err := s.Store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrUnauthorized(msgBadCredentials)
	}
	if err != nil {
		return Session{}, ErrPersistence("users: login", err)
	}
	if !s.Tokens.VerifyPassword(password, user.PasswordHash) {
		return Session{}, ErrUnauthorized(msgBadCredentials)
	}
	if !user.IsActive {
		return Session{}, ErrForbidden(msgAccountBlocked)
	}
	now := time.Now().UTC()
	if err := s.Store.SetLastLogin(ctx, user.ID, now); err != nil {
		logBestEffort("users: last login", err)
	} else {
		user.LastLogin = &now
	}
	return s.session(user)
}

// Refresh exchanges a refresh token for a new pair, rechecking the account.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	id, err := s.Tokens.SubjectID(refreshToken, "refresh")
	if err != nil {
		return Session{}, ErrUnauthorized("Sesi tidak valid. Silakan login kembali.")
	}
	user, err := s.Store.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrUnauthorized("Sesi tidak valid. Silakan login kembali.")
	}
	if err != nil {
		return Session{}, ErrPersistence("users: refresh", err)
	}
	if !user.IsActive {
		return Session{}, ErrForbidden(msgAccountBlocked)
	}
	return s.session(user)
}

func (s *UserService) Profile(ctx context.Context, userID int64) (ProfilePage, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return ProfilePage{}, err
	}
	stats, err := s.Store.UserAdStats(ctx, userID)
	if err != nil {
		return ProfilePage{}, ErrPersistence("users: stats", err)
	}
	recent, err := s.Store.RecentUserAds(ctx, userID, recentProfile)
	if err != nil {
		return ProfilePage{}, ErrPersistence("users: recent ads", err)
	}
	return ProfilePage{
		User:   s.view(user),
		Stats:  stats,
		Recent: cardViews(s.Images.Resolver, recent, time.Now()),
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input ProfileInput) (UserView, error) {
	errs := map[string]string{}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		errs["name"] = "Nama lengkap harus diisi"
	case utf8.RuneCountInString(name) < nameMin:
		errs["name"] = fmt.Sprintf("Nama minimal %d karakter", nameMin)
	}
	phone, msg := normalizePhone(input.Phone)
	if msg != "" {
		errs["phone"] = msg
	}
	var address *string
	if trimmed := strings.TrimSpace(input.Address); trimmed != "" {
		if utf8.RuneCountInString(trimmed) > addressMax {
			errs["address"] = fmt.Sprintf("Alamat maksimal %d karakter", addressMax)
		}
		address = &trimmed
	}
	if len(errs) > 0 {
		return UserView{}, ErrValidation(errs)
	}

	err := s.Store.UpdateProfile(ctx, userID, models.ProfileUpdate{Name: name, Phone: phone, Address: address})
	if errors.Is(err, store.ErrNotFound) {
		return UserView{}, ErrNotFound(msgUserNotFound)
	}
	if err != nil {
		return UserView{}, ErrPersistence("users: update profile", err)
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	return s.view(user), nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, change PasswordChange) error {
	errs := map[string]string{}
	if change.Current == "" {
		errs["current_password"] = "Password saat ini harus diisi"
	}
	switch {
	case change.New == "":
		errs["new_password"] = "Password baru harus diisi"
	case len(change.New) < passwordMin:
		errs["new_password"] = fmt.Sprintf("Password minimal %d karakter", passwordMin)
	}
	if change.New != change.Confirm {
		errs["confirm_password"] = "Password tidak cocok"
	}
	if len(errs) > 0 {
		return ErrValidation(errs)
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Tokens.VerifyPassword(change.Current, user.PasswordHash) {
		return ErrValidation(map[string]string{"current_password": "Password saat ini salah"})
	}
	hash, err := s.Tokens.HashPassword(change.New)
	if err != nil {
		return ErrPersistence("users: hash", err)
	}
	if err := s.Store.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound(msgUserNotFound)
		}
		return ErrPersistence("users: password", err)
	}
	return nil
}

// UploadProfilePicture stores the new picture, points the user at it and
// removes the previous file.
func (s *UserService) UploadProfilePicture(ctx context.Context, userID int64, file UploadedFile) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(file.Filename), "."))
	if !profilePictureExtensions[ext] {
		return "", ErrValidation(map[string]string{"profile_picture": "Format file harus JPG, JPEG, PNG, atau GIF"})
	}
	if file.Size > MaxProfilePictureBytes {
		return "", ErrValidation(map[string]string{"profile_picture": "Ukuran file maksimal 2MB"})
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("profile_%d_%d.%s", userID, time.Now().Unix(), ext)
	stored, err := s.Images.SaveProfilePicture(name, file)
	if err != nil {
		return "", ErrUpload("profile_picture", "Gagal mengupload foto profil", err)
	}
	if err := s.Store.SetProfilePicture(ctx, userID, stored); err != nil {
		s.Images.Remove(stored)
		return "", ErrPersistence("users: profile picture", err)
	}
	if user.ProfilePicture != nil && *user.ProfilePicture != "" && *user.ProfilePicture != stored {
		s.Images.Remove(*user.ProfilePicture)
	}
	return imageURL(s.Images.Resolver, stored), nil
}

func (s *UserService) user(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.Store.UserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrNotFound(msgUserNotFound)
	}
	if err != nil {
		return models.User{}, ErrPersistence("users: load", err)
	}
	return user, nil
}

func (s *UserService) session(user models.User) (Session, error) {
	access, exp, err := s.Tokens.CreateAccessToken(user.ID, user.Email)
	if err != nil {
		return Session{}, ErrPersistence("users: token", err)
	}
	refresh, err := s.Tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return Session{}, ErrPersistence("users: token", err)
	}
	return Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: s.view(user)}, nil
}

func (s *UserService) view(user models.User) UserView {
	view := UserView{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: DisplayName(user.Name),
		Email:       user.Email,
		Whatsapp:    user.Whatsapp,
		Phone:       user.Phone,
		Contact:     preferredContact(user),
		Address:     user.Address,
		LastLogin:   user.LastLogin,
		CreatedAt:   user.CreatedAt,
	}
	if user.ProfilePicture != nil && *user.ProfilePicture != "" {
		view.ProfilePicture = imageURL(s.Images.Resolver, *user.ProfilePicture)
	}
	return view
}

func DisplayName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return displayNameGuest
}

func preferredContact(user models.User) string {
	if user.Whatsapp != nil && strings.TrimSpace(*user.Whatsapp) != "" {
		return *user.Whatsapp
	}
	if user.Phone != nil {
		return *user.Phone
	}
	return ""
}
