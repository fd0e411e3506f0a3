package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT id, login_id, created_at FROM users WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.LoginID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByLoginID(ctx context.Context, loginID string) (model.User, error) {
	var user model.User
	query := `SELECT id, login_id, created_at FROM users WHERE login_id = $1`

	err := r.db.QueryRow(ctx, query, loginID).Scan(&user.ID, &user.LoginID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by login id: %w", err)
	}

	return user, nil
}

// CreateOrGet inserts the user, or returns the existing row when another
// login already claimed the same login_id. The CTE keeps first-login
// creation race-free: concurrent logins with one login_id resolve to the
// same stable user.
func (r *UserRepository) CreateOrGet(ctx context.Context, user model.User) (model.User, error) {
	query := `
		WITH ins AS (
			INSERT INTO users (id, login_id)
			VALUES ($1, $2)
			ON CONFLICT (login_id) DO NOTHING
			RETURNING id, login_id, created_at
		)
		SELECT id, login_id, created_at FROM ins
		UNION ALL
		SELECT u.id, u.login_id, u.created_at
		FROM users u
		WHERE NOT EXISTS (SELECT 1 FROM ins) AND u.login_id = $2
		LIMIT 1`

	var savedUser model.User
	err := r.db.QueryRow(ctx, query, user.ID, user.LoginID).Scan(
		&savedUser.ID, &savedUser.LoginID, &savedUser.CreatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}
