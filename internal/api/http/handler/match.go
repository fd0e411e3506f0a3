package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

// MatchService is the part of the match service the HTTP layer consumes.
type MatchService interface {
	Explain(ctx context.Context, input model.ImageInput, prompt string, userID *uuid.UUID) (model.MatchResult, error)
	ExplainBatch(ctx context.Context, inputs []model.ImageInput, prompt string, userID *uuid.UUID) ([]model.BatchItem, error)
	GetMatch(ctx context.Context, matchID uuid.UUID) (model.MatchRecord, error)
	GetHistory(ctx context.Context, userID uuid.UUID) (model.User, []model.MatchRecord, error)
	DeleteMatch(ctx context.Context, matchID uuid.UUID) error
	ServeImage(ctx context.Context, storedFilename string) (io.ReadCloser, string, int64, error)
}

type Match struct {
	service MatchService
}

func NewMatch(service MatchService) *Match {
	return &Match{service: service}
}

// matchResponse is the JSON shape of one match result. MatchID is only
// present when the result was persisted.
type matchResponse struct {
	FinalScore     float64         `json:"final_score"`
	Explanation    string          `json:"explanation_text"`
	Features       []model.Feature `json:"feature_breakdown"`
	MatchedNothing bool            `json:"matched_nothing"`
	Saved          bool            `json:"saved"`
	MatchID        string          `json:"match_id,omitempty"`
	SaveError      string          `json:"save_error,omitempty"`
}

func toMatchResponse(result model.MatchResult) matchResponse {
	resp := matchResponse{
		FinalScore:     result.FinalScore,
		Explanation:    result.Explanation,
		Features:       result.Features,
		MatchedNothing: result.MatchedNothing,
		Saved:          result.Saved,
		SaveError:      result.SaveError,
	}
	if result.Saved {
		resp.MatchID = result.MatchID.String()
	}
	return resp
}

// Explain handles POST /api/explain: score one image against a prompt
// and persist the result when a user_id form field is present.
func (h *Match) Explain(c *gin.Context) {
	input, prompt, err := parseMatchForm(c)
	if err != nil {
		handleError(c, err)
		return
	}

	userID, err := optionalUserID(c)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.service.Explain(c.Request.Context(), input, prompt, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMatchResponse(result))
}

// MatchOnly handles POST /api/match: same pipeline as Explain but never
// persists, regardless of login state.
func (h *Match) MatchOnly(c *gin.Context) {
	input, prompt, err := parseMatchForm(c)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.service.Explain(c.Request.Context(), input, prompt, nil)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMatchResponse(result))
}

type batchItemResponse struct {
	Filename string         `json:"filename"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Result   *matchResponse `json:"result,omitempty"`
}

// ExplainBatch handles POST /api/explain/batch: several images, one
// prompt. Each image yields its own success or error entry, input order
// preserved.
func (h *Match) ExplainBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			handleError(c, err)
			return
		}
		handleError(c, model.NewValidationError("invalid multipart form: %v", err))
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		files = form.File["image"]
	}
	if len(files) == 0 {
		handleError(c, model.NewValidationError("no image files provided"))
		return
	}

	prompt := c.PostForm("prompt")

	userID, err := optionalUserID(c)
	if err != nil {
		handleError(c, err)
		return
	}

	inputs := make([]model.ImageInput, 0, len(files))
	for _, file := range files {
		input, err := readUpload(file)
		if err != nil {
			handleError(c, err)
			return
		}
		inputs = append(inputs, input)
	}

	items, err := h.service.ExplainBatch(c.Request.Context(), inputs, prompt, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	results := make([]batchItemResponse, 0, len(items))
	for _, item := range items {
		entry := batchItemResponse{Filename: item.Filename}
		if item.Err != nil {
			entry.Status = "error"
			entry.Error = item.Err.Error()
		} else {
			entry.Status = "success"
			resp := toMatchResponse(item.Result)
			entry.Result = &resp
		}
		results = append(results, entry)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetHistory handles GET /api/history/:user_id.
func (h *Match) GetHistory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		handleError(c, model.NewValidationError("invalid user id"))
		return
	}

	user, records, err := h.service.GetHistory(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	if records == nil {
		records = []model.MatchRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"matches": records,
	})
}

// GetMatch handles GET /api/history/match/:match_id.
func (h *Match) GetMatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("match_id"))
	if err != nil {
		handleError(c, model.NewValidationError("invalid match id"))
		return
	}

	record, err := h.service.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// DeleteMatch handles DELETE /api/history/match/:match_id. Deleting the
// record also deletes its image blob.
func (h *Match) DeleteMatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("match_id"))
	if err != nil {
		handleError(c, model.NewValidationError("invalid match id"))
		return
	}

	if err := h.service.DeleteMatch(c.Request.Context(), matchID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match deleted successfully"})
}

// GetImage handles GET /api/image/:stored_filename, serving the raw blob
// bytes with the content type and length captured at upload.
func (h *Match) GetImage(c *gin.Context) {
	reader, contentType, size, err := h.service.ServeImage(c.Request.Context(), c.Param("stored_filename"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
}

func parseMatchForm(c *gin.Context) (model.ImageInput, string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			return model.ImageInput{}, "", err
		}
		return model.ImageInput{}, "", model.NewValidationError("no image file provided")
	}

	input, err := readUpload(file)
	if err != nil {
		return model.ImageInput{}, "", err
	}

	return input, c.PostForm("prompt"), nil
}

func readUpload(file *multipart.FileHeader) (model.ImageInput, error) {
	f, err := file.Open()
	if err != nil {
		return model.ImageInput{}, model.NewValidationError("failed to open upload %q: %v", file.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		if isBodyTooLarge(err) {
			return model.ImageInput{}, err
		}
		return model.ImageInput{}, model.NewValidationError("failed to read upload %q: %v", file.Filename, err)
	}

	return model.ImageInput{Filename: file.Filename, Data: data}, nil
}

// isBodyTooLarge reports whether err is the body-limit middleware cutting
// off an oversized request; that case maps to 413 rather than a
// validation 400.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func optionalUserID(c *gin.Context) (*uuid.UUID, error) {
	raw := c.PostForm("user_id")
	if raw == "" {
		return nil, nil
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, model.NewValidationError("invalid user id")
	}
	return &userID, nil
}
