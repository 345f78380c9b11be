package sentiment

import (
	"context"
	"strings"
	"unicode"
)

const (
	ventingAdjustment            = 0.10
	ventingExclamatoryAdjustment = 0.15
	ventingMaxWords              = 20
	ventingMaxSentences          = 3
	ventingMaxSentenceWords      = 12
)

var ventingTokens = []string{
	"ugh",
	"fml",
	"ffs",
	"argh",
	"smh",
	"bruh",
	"welp",
	"so done",
	"over it",
	"why me",
	"can't even",
	"this sucks",
	"screw this",
}

// VentingPatternDetector lifts short exclamatory bursts of casual distress, which are
// usually lower-stakes than their lexical content suggests. Longer elaborated negative
// narrative is left alone.
type VentingPatternDetector struct {
	phrases []phrase
}

func NewVentingPatternDetector() *VentingPatternDetector {
	return &VentingPatternDetector{phrases: compilePhrases(ventingTokens)}
}

func (d *VentingPatternDetector) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	if len(matchPhrases(d.phrases, turn.Normalized)) == 0 {
		return score, nil
	}

	sentences := d.sentenceLengths(ctx, turn)
	if !isBurst(sentences) {
		return score, nil
	}

	turn.flag("venting")
	if isExclamatory(turn.Text) {
		return score + ventingExclamatoryAdjustment, nil
	}
	return score + ventingAdjustment, nil
}

// sentenceLengths returns the word count of each sentence, preferring the
// linguistic analyzer's boundaries when it is available.
func (d *VentingPatternDetector) sentenceLengths(ctx context.Context, turn *Turn) []int {
	if a := turn.Analysis(ctx); a != nil && len(a.Sentences) > 0 {
		out := make([]int, 0, len(a.Sentences))
		for _, s := range a.Sentences {
			out = append(out, len(words(s.Text)))
		}
		return out
	}

	var out []int
	for _, s := range splitSentences(turn.Text) {
		out = append(out, len(words(s)))
	}
	return out
}

func isBurst(sentences []int) bool {
	if len(sentences) == 0 || len(sentences) > ventingMaxSentences {
		return false
	}
	total := 0
	for _, n := range sentences {
		total += n
	}
	return total <= ventingMaxWords && total/len(sentences) <= ventingMaxSentenceWords
}

func isExclamatory(text string) bool {
	if strings.Contains(text, "!") {
		return true
	}
	for _, f := range strings.Fields(text) {
		if len(f) >= 3 && strings.IndexFunc(f, unicode.IsLower) < 0 && strings.IndexFunc(f, unicode.IsUpper) >= 0 {
			return true
		}
	}
	return false
}
