package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByLoginID(ctx context.Context, loginID string) (User, error)
	CreateOrGet(ctx context.Context, user User) (User, error)
}

// User represents an account identified by a free-form login ID.
// There is no password: the login ID alone resolves to a stable user id,
// created on first login and immutable afterwards.
type User struct {
	ID        uuid.UUID `json:"id"`
	LoginID   string    `json:"login_id"`
	CreatedAt time.Time `json:"created_at"`
}
