package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

// AuthService is the part of the auth service the HTTP layer consumes.
type AuthService interface {
	Login(ctx context.Context, loginID string) (model.User, error)
	Check(ctx context.Context, loginID string) (model.User, error)
}

type Auth struct {
	service AuthService
}

func NewAuth(service AuthService) *Auth {
	return &Auth{service: service}
}

type loginRequest struct {
	LoginID string `json:"login_id"`
}

// Login handles POST /api/auth/login: create-or-get a user by login ID.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login ID is required"})
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.LoginID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
	})
}

// Check handles GET /api/auth/check/:login_id.
func (h *Auth) Check(c *gin.Context) {
	user, err := h.service.Check(c.Request.Context(), c.Param("login_id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"exists": false})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": true, "user": user})
}
