package matcher

import (
	"fmt"
	"strings"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

// Verdict bands on the rescaled [0,100] score.
const (
	strongVerdictScore   = 65.0
	moderateVerdictScore = 35.0
)

// ComposeExplanation renders a human-readable report for one scored
// match. Purely a formatting function: identical inputs always produce
// identical text, which keeps stored explanations reproducible when
// history is viewed later.
func ComposeExplanation(prompt string, scored Scored) string {
	var b strings.Builder

	verdict, gloss := verdictFor(scored.FinalScore)
	fmt.Fprintf(&b, "Overall Match Score: %.2f%% (%s)\n", scored.FinalScore, verdict)
	b.WriteString(gloss)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Prompt: '%s'\n", prompt)

	if scored.MatchedNothing {
		b.WriteString("The raw similarity was not positive: the image matched none of the prompt content.\n")
	}

	b.WriteString("\nFeature breakdown:\n")
	counts := map[model.FeatureStatus]int{}
	for _, f := range scored.Features {
		counts[f.Status]++
		fmt.Fprintf(&b, "  '%s': %.1f%% (%s)\n", f.Text, f.Similarity*100, f.Status)
	}

	fmt.Fprintf(&b, "\nSummary: %d features identified: %d strong, %d partial, %d weak.",
		len(scored.Features),
		counts[model.FeatureStatusStrong],
		counts[model.FeatureStatusPartial],
		counts[model.FeatureStatusWeak],
	)

	return b.String()
}

func verdictFor(score float64) (string, string) {
	switch {
	case score >= strongVerdictScore:
		return "Strong Match", "This high score indicates the image aligns well with the prompt."
	case score >= moderateVerdictScore:
		return "Moderate Match", "This moderate score suggests some alignment with mixed results."
	default:
		return "Weak Match", "This low score indicates significant misalignment with the prompt."
	}
}
