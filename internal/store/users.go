package store

import (
	"context"
	"strings"
	"time"

	"kfolx-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, password, whatsapp, phone, address, profile_picture, is_active, last_login, created_at`

func (g *SQLGateway) CreateUser(ctx context.Context, user models.NewUser) (int64, error) {
	id, err := insertID(ctx, g.q, `
INSERT INTO users (name, email, whatsapp, password, is_active, created_at)
VALUES (?, ?, ?, ?, 1, ?)`,
		user.Name, strings.ToLower(user.Email), user.Whatsapp, user.PasswordHash, time.Now().UTC())
	if isDuplicate(err) {
		return 0, ErrConflict
	}
	return id, err
}

func (g *SQLGateway) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, g.q, &user, g.q.Rebind(`SELECT `+userColumns+` FROM users WHERE LOWER(email) = ?`), strings.ToLower(email))
	return user, notFound(err)
}

func (g *SQLGateway) UserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, g.q, &user, g.q.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return user, notFound(err)
}

func (g *SQLGateway) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := g.q.ExecContext(ctx, g.q.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`), at, id)
	return err
}

func (g *SQLGateway) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error {
	return execScoped(ctx, g.q, `
UPDATE users
SET name = ?,
    phone = ?,
    address = ?,
    updated_at = ?
WHERE id = ?`, upd.Name, upd.Phone, upd.Address, time.Now().UTC(), id)
}

func (g *SQLGateway) SetProfilePicture(ctx context.Context, id int64, path string) error {
	return execScoped(ctx, g.q, `UPDATE users SET profile_picture = ?, updated_at = ? WHERE id = ?`, path, time.Now().UTC(), id)
}

func (g *SQLGateway) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return execScoped(ctx, g.q, `UPDATE users SET password = ?, updated_at = ? WHERE id = ?`, hash, time.Now().UTC(), id)
}
