package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

// handleError maps domain errors onto HTTP statuses with an
// {"error": message} body. Validation problems surface their reason;
// internal failures get a generic message and the detail stays in logs.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	var maxBytesErr *http.MaxBytesError
	var validationErr *model.ValidationError
	var embeddingErr *model.EmbeddingError
	var scoringErr *model.ScoringError

	switch {
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "uploaded file too large"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &embeddingErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process image and prompt"})
	case errors.As(err, &scoringErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal scoring error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
