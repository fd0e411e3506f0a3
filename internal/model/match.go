package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FeatureStatus classifies how well a single prompt feature matched the image.
type FeatureStatus string

const (
	FeatureStatusStrong  FeatureStatus = "strong"
	FeatureStatusPartial FeatureStatus = "partial"
	FeatureStatusWeak    FeatureStatus = "weak"
)

// FeatureCategory is the visual aspect a feature describes, assigned by
// keyword during decomposition.
type FeatureCategory string

const (
	CategoryStyle    FeatureCategory = "style"
	CategoryMaterial FeatureCategory = "material"
	CategoryLighting FeatureCategory = "lighting"
	CategoryLayout   FeatureCategory = "layout"
	CategoryFixtures FeatureCategory = "fixtures"
	CategoryGeneral  FeatureCategory = "general"
)

// Feature is one atomic phrase extracted from the prompt, scored
// independently against the image. Features only exist as part of a
// match result or a stored match record.
type Feature struct {
	Text       string          `json:"feature"`
	Category   FeatureCategory `json:"category"`
	Similarity float64         `json:"similarity"`
	Status     FeatureStatus   `json:"status"`
}

// MatchRecord is the persisted outcome of one explain-and-store request.
// Records are immutable once created; deletion also removes the owned
// image blob referenced by StoredFilename.
type MatchRecord struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Prompt         string    `json:"prompt"`
	ImageFilename  string    `json:"image_filename"`
	StoredFilename string    `json:"stored_filename"`
	FinalScore     float64   `json:"final_score"`
	Explanation    string    `json:"explanation"`
	Features       []Feature `json:"feature_breakdown"`
	CreatedAt      time.Time `json:"created_at"`
}

// MatchStore defines persistence operations for match records.
type MatchStore interface {
	Create(ctx context.Context, record MatchRecord) (MatchRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (MatchRecord, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]MatchRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MatchResult is the outcome of one explain invocation. Saved reports
// whether a MatchRecord was persisted; MatchID is only meaningful when
// Saved is true. SaveError carries the persistence failure when a score
// was computed but could not be stored.
type MatchResult struct {
	FinalScore     float64
	HolisticScore  float64
	MatchedNothing bool
	Features       []Feature
	Explanation    string
	Saved          bool
	MatchID        uuid.UUID
	SaveError      string
}

// ImageInput is one uploaded image entering the matching pipeline.
type ImageInput struct {
	Filename string
	Data     []byte
}

// BatchItem pairs one batch image with either its result or its error.
// A batch always yields one item per input image, in input order.
type BatchItem struct {
	Filename string
	Result   MatchResult
	Err      error
}
