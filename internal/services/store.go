package services

import (
	"context"
	"time"

	"sportsbook-backend/internal/models"
)

// Store persists user documents. UpdateUser applies fn to the latest copy of
// the user and writes it back only if nobody else wrote in between; an error
// from fn aborts the write and is returned unchanged.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, username string, fn func(*models.User) error) (*models.User, error)
	Ping(ctx context.Context) error
	Close() error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, error)
}

// maxUpdateAttempts bounds optimistic retries of UpdateUser.
const maxUpdateAttempts = 5
