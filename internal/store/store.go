package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kfolx-backend-go/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound covers both a missing row and an owner-scoped statement that
	// matched nothing; callers cannot tell the two apart.
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// Ads holds the ad operations that may run inside a transaction.
type Ads interface {
	CreateAd(ctx context.Context, ad models.NewAd) (int64, error)
	AttachImages(ctx context.Context, adID int64, paths []string, markFirstPrimary bool) error
	UpdateAd(ctx context.Context, adID, ownerID int64, upd models.AdUpdate) error
	DeleteImages(ctx context.Context, adID int64, imageIDs []int64) ([]string, error)
	DeleteAd(ctx context.Context, adID, ownerID int64) ([]string, error)
	SetStatus(ctx context.Context, adID, ownerID int64, status string) error
	OwnedAd(ctx context.Context, adID, ownerID int64) (models.Ad, error)
	ListImages(ctx context.Context, adID int64) ([]models.AdImage, error)
	CountImages(ctx context.Context, adID int64) (int, error)
	CategoryActive(ctx context.Context, categoryID int64) (bool, error)
}

type Listings interface {
	IncrementViews(ctx context.Context, adID int64) error
	ActiveAd(ctx context.Context, adID int64) (models.AdDetail, error)
	SimilarAds(ctx context.Context, categoryID, excludeID int64, limit int) ([]models.AdCard, error)
	SearchAds(ctx context.Context, filters models.SearchFilters, limit, offset int) ([]models.AdCard, error)
	CountAds(ctx context.Context, filters models.SearchFilters) (int, error)
	UserAds(ctx context.Context, userID int64, status string) ([]models.AdCard, error)
	RecentUserAds(ctx context.Context, userID int64, limit int) ([]models.AdCard, error)
	UserAdStats(ctx context.Context, userID int64) (models.AdStats, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Locations(ctx context.Context) ([]string, error)
	KnownLocations(ctx context.Context) ([]string, error)
	AllImagePaths(ctx context.Context) ([]models.AdImage, error)
	UpdateImagePath(ctx context.Context, imageID int64, path string) error
}

type Users interface {
	CreateUser(ctx context.Context, user models.NewUser) (int64, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error
	SetProfilePicture(ctx context.Context, id int64, path string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// Gateway is the only component that talks SQL.
type Gateway interface {
	Ads
	Listings
	Users
	InTx(ctx context.Context, fn func(tx Ads) error) error
	Ping(ctx context.Context) error
}

type SQLGateway struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func New(db *sqlx.DB) *SQLGateway {
	return &SQLGateway{db: db, q: db}
}

// InTx runs fn against a transaction-bound gateway. Any error or panic from fn
// rolls the transaction back.
func (g *SQLGateway) InTx(ctx context.Context, fn func(tx Ads) error) (err error) {
	if _, nested := g.q.(*sqlx.Tx); nested {
		return fn(g)
	}
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&SQLGateway{db: g.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (g *SQLGateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

// insertID runs an INSERT and returns the generated id. Postgres has no
// LastInsertId so the statement gets a RETURNING clause there.
func insertID(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	if sqlx.BindType(q.DriverName()) == sqlx.DOLLAR {
		var id int64
		if err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected != 1 {
		return 0, fmt.Errorf("insert affected %d rows", affected)
	}
	return res.LastInsertId()
}

// execScoped runs an owner-scoped mutation and maps zero affected rows to
// ErrNotFound.
func execScoped(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) error {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
