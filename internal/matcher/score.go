package matcher

import (
	"math"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

// ScorerConfig calibrates threshold classification and score aggregation
// against the embedding model's similarity distribution. CLIP-style
// models produce small positive cosine similarities for good matches, so
// the native range [ScaleFloor, ScaleCeil] is stretched to [0,100].
type ScorerConfig struct {
	StrongThreshold  float64
	PartialThreshold float64
	HolisticWeight   float64
	FeatureWeight    float64
	ScaleFloor       float64
	ScaleCeil        float64
}

// FeatureVector pairs a decomposed feature phrase with its embedding.
type FeatureVector struct {
	Text     string
	Category model.FeatureCategory
	Vector   []float32
}

// Scored is the aggregate outcome of scoring one image against a prompt.
// MatchedNothing records that the raw combined similarity was not
// positive, so the clamped percentage must not be read as a faint match.
type Scored struct {
	FinalScore     float64
	HolisticScore  float64
	MatchedNothing bool
	Features       []model.Feature
}

// Scorer computes per-feature and holistic similarities and aggregates
// them into a final percentage. Pure function of its numeric inputs.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score classifies every feature against the image vector and combines
// the holistic prompt similarity with the mean feature similarity.
func (s *Scorer) Score(imageVec, promptVec []float32, features []FeatureVector) (Scored, error) {
	if len(features) == 0 {
		return Scored{}, model.NewScoringError("feature list is empty")
	}
	if len(imageVec) == 0 {
		return Scored{}, model.NewScoringError("image vector is empty")
	}
	if len(promptVec) != len(imageVec) {
		return Scored{}, model.NewScoringError("prompt vector dimension %d does not match image dimension %d", len(promptVec), len(imageVec))
	}

	holistic := CosineSimilarity(imageVec, promptVec)

	scored := make([]model.Feature, 0, len(features))
	var featureSum float64
	for _, f := range features {
		if len(f.Vector) != len(imageVec) {
			return Scored{}, model.NewScoringError("feature %q vector dimension %d does not match image dimension %d", f.Text, len(f.Vector), len(imageVec))
		}

		sim := CosineSimilarity(imageVec, f.Vector)
		featureSum += sim
		scored = append(scored, model.Feature{
			Text:       f.Text,
			Category:   f.Category,
			Similarity: clamp01(sim),
			Status:     s.classify(sim),
		})
	}

	combined := s.cfg.HolisticWeight*holistic + s.cfg.FeatureWeight*(featureSum/float64(len(features)))

	return Scored{
		FinalScore:     s.rescale(combined),
		HolisticScore:  holistic,
		MatchedNothing: combined <= 0,
		Features:       scored,
	}, nil
}

func (s *Scorer) classify(sim float64) model.FeatureStatus {
	switch {
	case sim >= s.cfg.StrongThreshold:
		return model.FeatureStatusStrong
	case sim >= s.cfg.PartialThreshold:
		return model.FeatureStatusPartial
	default:
		return model.FeatureStatusWeak
	}
}

// rescale maps a raw similarity from the model's native range to [0,100].
func (s *Scorer) rescale(sim float64) float64 {
	pct := (sim - s.cfg.ScaleFloor) / (s.cfg.ScaleCeil - s.cfg.ScaleFloor) * 100
	return math.Max(0, math.Min(100, pct))
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
