package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	// Image formats accepted for upload validation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/abhijeet1275/image-matcher/internal/logger"
	"github.com/abhijeet1275/image-matcher/internal/matcher"
	"github.com/abhijeet1275/image-matcher/internal/model"
)

// Match orchestrates the explainable matching pipeline: decompose the
// prompt, embed everything, score, compose the explanation and, for
// logged-in users, persist the record plus its image blob.
type Match struct {
	decomposer *matcher.Decomposer
	scorer     *matcher.Scorer
	embedder   model.Embedder
	matchStore model.MatchStore
	userStore  model.UserStore
	storage    model.Storage
	logger     *logger.Logger
}

func NewMatch(
	decomposer *matcher.Decomposer,
	scorer *matcher.Scorer,
	embedder model.Embedder,
	matchStore model.MatchStore,
	userStore model.UserStore,
	storage model.Storage,
	logger *logger.Logger,
) *Match {
	return &Match{
		decomposer: decomposer,
		scorer:     scorer,
		embedder:   embedder,
		matchStore: matchStore,
		userStore:  userStore,
		storage:    storage,
		logger:     logger,
	}
}

// promptContext holds the decomposed and embedded prompt. It is computed
// once per request and shared read-only across the per-image pipelines of
// a batch, since decomposition depends only on the prompt.
type promptContext struct {
	prompt     string
	promptVec  []float32
	featureVec []matcher.FeatureVector
}

// Explain runs the full pipeline for one image. When userID is non-nil
// the result is persisted; a persistence failure after a successful score
// still returns the computed result, with Saved false and the error
// recorded in SaveError.
func (s *Match) Explain(ctx context.Context, input model.ImageInput, prompt string, userID *uuid.UUID) (model.MatchResult, error) {
	if _, err := validateImage(input.Data); err != nil {
		return model.MatchResult{}, err
	}

	pc, err := s.preparePrompt(ctx, prompt)
	if err != nil {
		return model.MatchResult{}, err
	}

	return s.explainOne(ctx, pc, input, userID)
}

// ExplainBatch runs an independent pipeline per image, concurrently. One
// image's failure never aborts its siblings: the returned slice has one
// entry per input image, in input order, each carrying either a result or
// an error.
func (s *Match) ExplainBatch(ctx context.Context, inputs []model.ImageInput, prompt string, userID *uuid.UUID) ([]model.BatchItem, error) {
	pc, err := s.preparePrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items := make([]model.BatchItem, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		g.Go(func() error {
			result, err := s.explainOne(gctx, pc, input, userID)
			items[i] = model.BatchItem{Filename: input.Filename, Result: result, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

// GetMatch returns one stored match record by id.
func (s *Match) GetMatch(ctx context.Context, matchID uuid.UUID) (model.MatchRecord, error) {
	record, err := s.matchStore.GetByID(ctx, matchID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	return record, nil
}

// GetHistory returns the user and their match records, most recent first.
func (s *Match) GetHistory(ctx context.Context, userID uuid.UUID) (model.User, []model.MatchRecord, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, nil, err
	}

	records, err := s.matchStore.GetByUserID(ctx, userID)
	if err != nil {
		return model.User{}, nil, fmt.Errorf("failed to get matches by user id: %w", err)
	}

	return user, records, nil
}

// DeleteMatch deletes a record and the image blob it owns. The record row
// goes first so no surviving record ever references a missing blob.
func (s *Match) DeleteMatch(ctx context.Context, matchID uuid.UUID) error {
	record, err := s.matchStore.GetByID(ctx, matchID)
	if err != nil {
		return err
	}

	if err := s.matchStore.Delete(ctx, matchID); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, record.StoredFilename); err != nil {
		s.logger.Error("Match service: failed to delete image blob",
			"match_id", matchID,
			"stored_filename", record.StoredFilename,
			"error", err.Error())
		return fmt.Errorf("failed to delete image blob: %w", err)
	}

	return nil
}

// ServeImage returns the stored image bytes with their content type and
// size for a blob reference.
func (s *Match) ServeImage(ctx context.Context, storedFilename string) (io.ReadCloser, string, int64, error) {
	return s.storage.Download(ctx, storedFilename)
}

func (s *Match) preparePrompt(ctx context.Context, prompt string) (*promptContext, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, model.ErrEmptyPrompt
	}

	fragments := s.decomposer.Decompose(prompt)

	// One sidecar round trip covers the holistic prompt and every feature.
	texts := make([]string, 0, len(fragments)+1)
	texts = append(texts, prompt)
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	featureVec := make([]matcher.FeatureVector, len(fragments))
	for i, f := range fragments {
		featureVec[i] = matcher.FeatureVector{Text: f.Text, Category: f.Category, Vector: vectors[i+1]}
	}

	return &promptContext{
		prompt:     prompt,
		promptVec:  vectors[0],
		featureVec: featureVec,
	}, nil
}

func (s *Match) explainOne(ctx context.Context, pc *promptContext, input model.ImageInput, userID *uuid.UUID) (model.MatchResult, error) {
	contentType, err := validateImage(input.Data)
	if err != nil {
		return model.MatchResult{}, err
	}

	imageVec, err := s.embedder.EmbedImage(ctx, input.Data)
	if err != nil {
		return model.MatchResult{}, err
	}

	scored, err := s.scorer.Score(imageVec, pc.promptVec, pc.featureVec)
	if err != nil {
		s.logger.Error("Match service: scoring failed",
			"prompt", pc.prompt,
			"error", err.Error())
		return model.MatchResult{}, err
	}

	result := model.MatchResult{
		FinalScore:     scored.FinalScore,
		HolisticScore:  scored.HolisticScore,
		MatchedNothing: scored.MatchedNothing,
		Features:       scored.Features,
		Explanation:    matcher.ComposeExplanation(pc.prompt, scored),
	}

	if userID == nil {
		return result, nil
	}

	matchID, err := s.persist(ctx, *userID, input, contentType, pc.prompt, result)
	if err != nil {
		// The score is already computed; losing it over a persistence
		// failure would discard a successful match.
		s.logger.Error("Match service: failed to persist match",
			"user_id", *userID,
			"error", err.Error())
		result.SaveError = err.Error()
		return result, nil
	}

	result.Saved = true
	result.MatchID = matchID
	return result, nil
}

func (s *Match) persist(ctx context.Context, userID uuid.UUID, input model.ImageInput, contentType, prompt string, result model.MatchResult) (uuid.UUID, error) {
	if _, err := s.userStore.GetByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("unknown user %s", userID)
		}
		return uuid.Nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	storedFilename := uuid.New().String() + extensionFor(contentType)
	if err := s.storage.Upload(ctx, storedFilename, bytes.NewReader(input.Data), int64(len(input.Data)), contentType); err != nil {
		return uuid.Nil, fmt.Errorf("failed to upload image: %w", err)
	}

	record := model.MatchRecord{
		ID:             uuid.New(),
		UserID:         userID,
		Prompt:         prompt,
		ImageFilename:  path.Base(input.Filename),
		StoredFilename: storedFilename,
		FinalScore:     result.FinalScore,
		Explanation:    result.Explanation,
		Features:       result.Features,
	}

	created, err := s.matchStore.Create(ctx, record)
	if err != nil {
		// Do not leave an orphaned blob behind a failed insert.
		if cleanupErr := s.storage.Delete(ctx, storedFilename); cleanupErr != nil {
			s.logger.Error("Match service: failed to clean up blob after create failure",
				"stored_filename", storedFilename,
				"error", cleanupErr.Error())
		}
		return uuid.Nil, fmt.Errorf("failed to create match record: %w", err)
	}

	return created.ID, nil
}

// validateImage checks the upload is non-empty and decodable, and returns
// its content type.
func validateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", model.NewValidationError("image cannot be empty")
	}

	format, err := decodeFormat(data)
	if err != nil {
		return "", model.NewValidationError("unsupported or corrupt image: %v", err)
	}

	return "image/" + format, nil
}

func decodeFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return format, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
