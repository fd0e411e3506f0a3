package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhijeet1275/image-matcher/internal/logger"
	"github.com/abhijeet1275/image-matcher/internal/model"
)

// Auth resolves login identifiers to stable users. There is no password
// or session handling: the first login with an identifier creates the
// user, every later login returns the same one.
type Auth struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewAuth(userStore model.UserStore, logger *logger.Logger) *Auth {
	return &Auth{
		userStore: userStore,
		logger:    logger,
	}
}

// Login creates the user for loginID on first use and returns the
// existing user afterwards.
func (a *Auth) Login(ctx context.Context, loginID string) (model.User, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" {
		return model.User{}, model.NewValidationError("login ID cannot be empty")
	}

	user, err := a.userStore.CreateOrGet(ctx, model.User{
		ID:      uuid.New(),
		LoginID: loginID,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to create or get user",
			"login_id", loginID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create or get user: %w", err)
	}

	a.logger.Debug("Auth service: user logged in",
		"login_id", loginID,
		"user_id", user.ID)

	return user, nil
}

// Check returns the user for loginID without creating one.
func (a *Auth) Check(ctx context.Context, loginID string) (model.User, error) {
	user, err := a.userStore.GetByLoginID(ctx, strings.TrimSpace(loginID))
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}
