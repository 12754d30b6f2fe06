package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/models"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrUserNotFound  = errors.New("user not found")
)

// TokenStore is the persistence seam for API tokens. Implementations return
// ErrTokenNotFound for missing records.
type TokenStore interface {
	Insert(ctx context.Context, t *models.APIToken) error
	// InsertIfUnderLimit stores t only while the owner holds fewer than max
	// non-expired tokens, atomically with the count. Returns false, without
	// error, when the ceiling is already reached.
	InsertIfUnderLimit(ctx context.Context, t *models.APIToken, max int, now time.Time) (bool, error)
	FindByHash(ctx context.Context, hash string) (*models.APIToken, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.APIToken, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserStore is the minimal identity lookup the auth layer needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
