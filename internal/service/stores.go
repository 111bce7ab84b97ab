package service

import (
	"context"
	"time"

	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
)

// Store contracts consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateProfile(ctx context.Context, user models.User) error
	TouchLastLogin(ctx context.Context, id string) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdatePlan(ctx context.Context, id string, plan models.UserPlan) error
	CountSuperAdmins(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) ([]string, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, int, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int, error)
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	ListFollowers(ctx context.Context, userID string, limit, offset int) ([]models.User, int, error)
	ListFollowing(ctx context.Context, userID string, limit, offset int) ([]models.User, int, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	Rotate(ctx context.Context, id string, oldHash, newHash []byte, expiresAt time.Time) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldest(ctx context.Context, userID string, keepLatest int) error
	Touch(ctx context.Context, id string, ip string, userAgent string) error
}

type PortfolioStore interface {
	Create(ctx context.Context, p models.Portfolio) error
	GetByID(ctx context.Context, id string) (models.Portfolio, error)
	GetBySlug(ctx context.Context, slug string) (models.Portfolio, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByUser(ctx context.Context, userID string, includePrivate bool) ([]models.Portfolio, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Portfolio, int, error)
	Update(ctx context.Context, p models.Portfolio) error
	SetDefault(ctx context.Context, userID, portfolioID string) error
	Delete(ctx context.Context, id string) ([]string, error)
	RecordView(ctx context.Context, id string, unique bool) error
}

type PhotoStore interface {
	Create(ctx context.Context, photo models.Photo) error
	GetByID(ctx context.Context, id string) (models.Photo, error)
	Update(ctx context.Context, photo models.Photo) error
	Delete(ctx context.Context, id string) (models.Photo, error)
	List(ctx context.Context, filter repository.PhotoFilter) ([]models.Photo, int, error)
	IncrementCounter(ctx context.Context, id string, column repository.CounterColumn) error
	Moderate(ctx context.Context, id string, status models.ModerationStatus, reviewerID string, reason string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByStatus(ctx context.Context) (map[models.ModerationStatus]int, error)
}

// ViewTracker decides whether a visitor was already counted for a resource
// within the dedup window. The redis implementation survives restarts and
// multiple instances.
type ViewTracker interface {
	FirstSeen(ctx context.Context, resourceKey, visitorKey string) (bool, error)
}

// Page carries offset/limit pagination results.
type Page struct {
	Total     int `json:"total"`
	Page      int `json:"page"`
	PerPage   int `json:"perPage"`
	PageCount int `json:"pageCount"`
}

func NewPage(total, offset, limit int) Page {
	if limit <= 0 {
		limit = 20
	}
	pageCount := (total + limit - 1) / limit
	return Page{
		Total:     total,
		Page:      offset/limit + 1,
		PerPage:   limit,
		PageCount: pageCount,
	}
}
