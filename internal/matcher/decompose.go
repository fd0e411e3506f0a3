package matcher

import (
	"regexp"
	"strings"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

// Fragment boundaries: commas, semicolons, and joining words that separate
// visual features in free-text prompts ("modern kitchen with white
// cabinets and pendant lights").
var fragmentPattern = regexp.MustCompile(`(?i),|;|\s+and\s+|\s+with\s+|\s+featuring\s+`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"and": {}, "with": {}, "is": {}, "are": {}, "it": {}, "its": {},
	"very": {}, "some": {}, "to": {}, "for": {}, "by": {}, "or": {},
}

// Keyword tables for category assignment, checked in order; the first
// table with a hit wins and anything unmatched is general.
var categoryKeywords = []struct {
	category model.FeatureCategory
	words    []string
}{
	{model.CategoryStyle, []string{"modern", "rustic", "minimalist", "contemporary", "traditional", "elegant"}},
	{model.CategoryMaterial, []string{"cabinet", "countertop", "backsplash", "wood", "marble", "granite", "stone"}},
	{model.CategoryLighting, []string{"light", "lighting", "pendant", "chandelier", "led"}},
	{model.CategoryLayout, []string{"island", "layout", "open concept", "shaped"}},
	{model.CategoryFixtures, []string{"appliance", "sink", "faucet", "oven", "refrigerator"}},
}

// Fragment is one decomposed feature phrase with its assigned category.
type Fragment struct {
	Text     string
	Category model.FeatureCategory
}

// Decomposer splits a prompt into an ordered set of atomic features for
// independent scoring. Decomposition is purely lexical and deterministic:
// the same prompt always yields the same feature sequence.
type Decomposer struct {
	maxFeatures int
}

func NewDecomposer(maxFeatures int) *Decomposer {
	return &Decomposer{maxFeatures: maxFeatures}
}

// Decompose extracts up to maxFeatures feature phrases in prompt order,
// each categorized by keyword. Fragments that are empty or consist only
// of stopwords are dropped and duplicates are removed case-insensitively.
// If nothing usable remains, the whole prompt is the single feature so
// the pipeline never scores an empty feature set.
func (d *Decomposer) Decompose(prompt string) []Fragment {
	seen := make(map[string]struct{})
	var features []Fragment

	for _, fragment := range fragmentPattern.Split(prompt, -1) {
		text := strings.TrimSpace(strings.Trim(strings.TrimSpace(fragment), ".!?"))
		if text == "" || !hasContent(text) {
			continue
		}

		key := strings.ToLower(text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		features = append(features, Fragment{Text: text, Category: categorize(key)})
		if len(features) == d.maxFeatures {
			break
		}
	}

	if len(features) == 0 {
		text := strings.TrimSpace(prompt)
		return []Fragment{{Text: text, Category: categorize(strings.ToLower(text))}}
	}

	return features
}

// categorize assigns the visual aspect of a lowercased fragment by
// keyword containment.
func categorize(fragment string) model.FeatureCategory {
	for _, table := range categoryKeywords {
		for _, word := range table.words {
			if strings.Contains(fragment, word) {
				return table.category
			}
		}
	}
	return model.CategoryGeneral
}

// hasContent reports whether the fragment contains at least one
// non-stopword token.
func hasContent(fragment string) bool {
	for _, word := range strings.Fields(strings.ToLower(fragment)) {
		if _, ok := stopwords[strings.Trim(word, ".,!?'\"")]; !ok {
			return true
		}
	}
	return false
}
