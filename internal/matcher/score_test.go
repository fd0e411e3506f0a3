package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

func defaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		StrongThreshold:  0.30,
		PartialThreshold: 0.15,
		HolisticWeight:   0.5,
		FeatureWeight:    0.5,
		ScaleFloor:       0.0,
		ScaleCeil:        0.45,
	}
}

// unitVec builds a 2D unit vector whose cosine similarity against [1, 0]
// equals sim exactly.
func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer(defaultScorerConfig())
	image := []float32{1, 0}

	scored, err := s.Score(image, unitVec(0.32), []FeatureVector{
		{Text: "red", Category: model.CategoryGeneral, Vector: unitVec(0.28)},
		{Text: "sports car", Category: model.CategoryStyle, Vector: unitVec(0.35)},
	})
	require.NoError(t, err)

	require.Len(t, scored.Features, 2)
	assert.Equal(t, "red", scored.Features[0].Text)
	assert.Equal(t, model.CategoryGeneral, scored.Features[0].Category)
	assert.Equal(t, model.FeatureStatusPartial, scored.Features[0].Status)
	assert.InDelta(t, 0.28, scored.Features[0].Similarity, 1e-6)
	assert.Equal(t, "sports car", scored.Features[1].Text)
	assert.Equal(t, model.CategoryStyle, scored.Features[1].Category)
	assert.Equal(t, model.FeatureStatusStrong, scored.Features[1].Status)
	assert.InDelta(t, 0.35, scored.Features[1].Similarity, 1e-6)

	assert.InDelta(t, 0.32, scored.HolisticScore, 1e-6)

	// 0.5*0.32 + 0.5*mean(0.28, 0.35) = 0.3175, scaled over [0, 0.45].
	assert.InDelta(t, 0.3175/0.45*100, scored.FinalScore, 1e-4)
	assert.False(t, scored.MatchedNothing)
}

func TestScorer_Score_StatusBoundaries(t *testing.T) {
	s := NewScorer(defaultScorerConfig())
	image := []float32{1, 0}

	tests := []struct {
		name     string
		sim      float64
		expected model.FeatureStatus
	}{
		{name: "at strong threshold", sim: 0.30, expected: model.FeatureStatusStrong},
		{name: "just below strong", sim: 0.29, expected: model.FeatureStatusPartial},
		{name: "at partial threshold", sim: 0.15, expected: model.FeatureStatusPartial},
		{name: "below partial", sim: 0.14, expected: model.FeatureStatusWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored, err := s.Score(image, unitVec(0.2), []FeatureVector{{Text: "f", Vector: unitVec(tt.sim)}})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, scored.Features[0].Status)
		})
	}
}

func TestScorer_Score_BoundsAndClamping(t *testing.T) {
	s := NewScorer(defaultScorerConfig())
	image := []float32{1, 0}

	t.Run("score above native range clamps to 100", func(t *testing.T) {
		scored, err := s.Score(image, unitVec(0.9), []FeatureVector{{Text: "f", Vector: unitVec(0.9)}})
		require.NoError(t, err)
		assert.Equal(t, 100.0, scored.FinalScore)
		assert.False(t, scored.MatchedNothing)
	})

	t.Run("negative raw similarity clamps to 0 and is recorded", func(t *testing.T) {
		opposite := []float32{-1, 0}
		scored, err := s.Score(image, opposite, []FeatureVector{{Text: "f", Vector: opposite}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, scored.FinalScore)
		assert.True(t, scored.MatchedNothing)
		// Reported feature similarity stays in [0,1] even for negative cosine.
		assert.Equal(t, 0.0, scored.Features[0].Similarity)
		assert.Equal(t, model.FeatureStatusWeak, scored.Features[0].Status)
	})
}

func TestScorer_Score_Errors(t *testing.T) {
	s := NewScorer(defaultScorerConfig())
	image := []float32{1, 0}

	t.Run("empty feature list", func(t *testing.T) {
		_, err := s.Score(image, unitVec(0.3), nil)
		require.Error(t, err)
		var scoringErr *model.ScoringError
		assert.ErrorAs(t, err, &scoringErr)
	})

	t.Run("prompt dimension mismatch", func(t *testing.T) {
		_, err := s.Score(image, []float32{1, 0, 0}, []FeatureVector{{Text: "f", Vector: unitVec(0.3)}})
		require.Error(t, err)
		var scoringErr *model.ScoringError
		assert.ErrorAs(t, err, &scoringErr)
	})

	t.Run("feature dimension mismatch", func(t *testing.T) {
		_, err := s.Score(image, unitVec(0.3), []FeatureVector{{Text: "f", Vector: []float32{1}}})
		require.Error(t, err)
		var scoringErr *model.ScoringError
		assert.ErrorAs(t, err, &scoringErr)
	})

	t.Run("empty image vector", func(t *testing.T) {
		_, err := s.Score(nil, unitVec(0.3), []FeatureVector{{Text: "f", Vector: unitVec(0.3)}})
		require.Error(t, err)
		var scoringErr *model.ScoringError
		assert.ErrorAs(t, err, &scoringErr)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, expected: -1},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1}, expected: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expected: 0},
		{name: "empty vectors", a: nil, b: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
