package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kfolx-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "kfolx",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func newUserService(t *testing.T) (*UserService, *fakeGateway, string) {
	t.Helper()
	root := t.TempDir()
	gw := newFakeGateway()
	return NewUserService(gw, testTokens(), NewImageStore(NewResolver(root, "uploads"))), gw, root
}

func registerInput() RegisterInput {
	return RegisterInput{
		Name:            "Siti Aminah",
		Email:           "Siti@Example.com",
		Whatsapp:        "081234567890",
		Password:        "rahasia1",
		ConfirmPassword: "rahasia1",
		AcceptTerms:     true,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, gw, _ := newUserService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "siti@example.com", session.User.Email)
	assert.Equal(t, "081234567890", session.User.Contact)
	assert.True(t, strings.HasPrefix(gw.users[session.User.ID].PasswordHash, "$argon2id$"))

	_, err = svc.Register(ctx, registerInput())
	serr := requireServiceError(t, err, KindValidation)
	assert.Equal(t, "Email sudah terdaftar", serr.Fields["email"])

	logged, err := svc.Login(ctx, "siti@example.com", "rahasia1")
	require.NoError(t, err)
	assert.NotNil(t, gw.users[logged.User.ID].LastLogin)

	id, err := svc.Tokens.SubjectID(logged.AccessToken, "access")
	require.NoError(t, err)
	assert.Equal(t, logged.User.ID, id)
}

func TestLoginFailures(t *testing.T) {
	svc, gw, _ := newUserService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "siti@example.com", "salah123")
	serr := requireServiceError(t, err, KindUnauthorized)
	assert.Equal(t, msgBadCredentials, serr.Message)

	_, err = svc.Login(ctx, "nobody@example.com", "rahasia1")
	serr = requireServiceError(t, err, KindUnauthorized)
	assert.Equal(t, msgBadCredentials, serr.Message)

	_, err = svc.Login(ctx, "bukan email", "")
	serr = requireServiceError(t, err, KindValidation)
	assert.Equal(t, "Email tidak valid", serr.Fields["email"])
	assert.Equal(t, "Password harus diisi", serr.Fields["password"])

	user := gw.users[session.User.ID]
	user.IsActive = false
	gw.users[user.ID] = user
	_, err = svc.Login(ctx, "siti@example.com", "rahasia1")
	serr = requireServiceError(t, err, KindForbidden)
	assert.Equal(t, 403, serr.Status)
}

func TestLoginAcceptsLegacyBcryptHash(t *testing.T) {
	svc, gw, _ := newUserService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("lama123"), bcrypt.MinCost)
	require.NoError(t, err)
	legacy := strings.Replace(string(hash), "$2a$", "$2y$", 1)
	gw.users[7] = models.User{ID: 7, Name: "Andi", Email: "andi@example.com", PasswordHash: legacy, IsActive: true}

	session, err := svc.Login(context.Background(), "andi@example.com", "lama123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.User.ID)
}

func TestRefresh(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, session.AccessToken)
	requireServiceError(t, err, KindUnauthorized)

	renewed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, renewed.User.ID)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	id := session.User.ID

	err = svc.ChangePassword(ctx, id, PasswordChange{Current: "keliru", New: "baru1234", Confirm: "baru1234"})
	serr := requireServiceError(t, err, KindValidation)
	assert.Equal(t, "Password saat ini salah", serr.Fields["current_password"])

	err = svc.ChangePassword(ctx, id, PasswordChange{Current: "rahasia1", New: "baru", Confirm: "lain"})
	serr = requireServiceError(t, err, KindValidation)
	assert.Contains(t, serr.Fields, "new_password")
	assert.Contains(t, serr.Fields, "confirm_password")

	require.NoError(t, svc.ChangePassword(ctx, id, PasswordChange{Current: "rahasia1", New: "baru1234", Confirm: "baru1234"}))
	_, err = svc.Login(ctx, "siti@example.com", "baru1234")
	require.NoError(t, err)
}

func TestUpdateProfileAndProfilePage(t *testing.T) {
	svc, gw, _ := newUserService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	id := session.User.ID

	_, err = svc.UpdateProfile(ctx, id, ProfileInput{Name: "Siti", Phone: "12"})
	serr := requireServiceError(t, err, KindValidation)
	assert.Contains(t, serr.Fields, "phone")

	view, err := svc.UpdateProfile(ctx, id, ProfileInput{Name: "Siti A.", Phone: "0811 2222 3333", Address: "Jl. Merdeka 1"})
	require.NoError(t, err)
	assert.Equal(t, "Siti A.", view.Name)
	require.NotNil(t, view.Phone)
	assert.Equal(t, "081122223333", *view.Phone)

	gw.ads[50] = models.Ad{ID: 50, UserID: id, CategoryID: 1, Title: "Sepeda", Status: models.StatusSold, Views: 4}
	page, err := svc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Stats.Sold)
	assert.Equal(t, int64(4), page.Stats.TotalViews)
	assert.Len(t, page.Recent, 1)

	_, err = svc.Profile(ctx, 999)
	requireServiceError(t, err, KindNotFound)
}

func TestDisplayNameAndContact(t *testing.T) {
	assert.Equal(t, "Pengguna", DisplayName("   "))
	assert.Equal(t, "Budi", DisplayName(" Budi "))

	phone := "0811"
	empty := ""
	assert.Equal(t, "0811", preferredContact(models.User{Whatsapp: &empty, Phone: &phone}))
	assert.Equal(t, "", preferredContact(models.User{}))
}

func TestUploadProfilePicture(t *testing.T) {
	svc, gw, root := newUserService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	id := session.User.ID

	doc := pngFile(t, 4, 4)
	doc.Filename = "cv.pdf"
	_, err = svc.UploadProfilePicture(ctx, id, doc)
	requireServiceError(t, err, KindValidation)

	big := pngFile(t, 4, 4)
	big.Size = MaxProfilePictureBytes + 1
	_, err = svc.UploadProfilePicture(ctx, id, big)
	serr := requireServiceError(t, err, KindValidation)
	assert.Equal(t, "Ukuran file maksimal 2MB", serr.Fields["profile_picture"])

	writeFile(t, root, "uploads/profile_pictures/old.png")
	old := "uploads/profile_pictures/old.png"
	user := gw.users[id]
	user.ProfilePicture = &old
	gw.users[id] = user

	url, err := svc.UploadProfilePicture(ctx, id, pngFile(t, 4, 4))
	require.NoError(t, err)
	assert.Regexp(t, `^/uploads/profile_pictures/profile_\d+_\d+\.png$`, url)
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "/"))))
	assert.NoFileExists(t, filepath.Join(root, "uploads", "profile_pictures", "old.png"))
	assert.Equal(t, strings.TrimPrefix(url, "/"), *gw.users[id].ProfilePicture)
}
