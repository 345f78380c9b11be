package sentiment

import (
	"context"
	"regexp"
	"strings"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	sarcasmMarkerAdjustment = 0.15
	sarcasmStrongAdjustment = 0.20
)

var sarcasmMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\boh,? great\b`),
	regexp.MustCompile(`\byeah,? right\b`),
	regexp.MustCompile(`\bjust what i (needed|wanted)\b`),
	regexp.MustCompile(`\bjust perfect\b`),
	regexp.MustCompile(`\bhow wonderful\b`),
	regexp.MustCompile(`\bthanks a lot\b`),
	regexp.MustCompile(`\bso much fun\b`),
	regexp.MustCompile(`\bi (just |really )?love (it )?when\b`),
	regexp.MustCompile(`\bwhat a (surprise|shock)\b`),
	regexp.MustCompile(`\banother (wonderful|great|fantastic|perfect|lovely) day\b`),
	regexp.MustCompile(`\bcouldn'?t be (happier|better)\b`),
	regexp.MustCompile(`\bsure,? because\b`),
	regexp.MustCompile(`(^|\s)/s\b`),
	regexp.MustCompile(`[!?]{3,}|\.{4,}`),
}

var (
	positiveAdjectives = map[string]bool{
		"great": true, "wonderful": true, "perfect": true, "amazing": true, "fantastic": true,
		"awesome": true, "lovely": true, "brilliant": true, "excellent": true, "best": true,
		"nice": true, "fun": true, "happy": true, "glad": true, "incredible": true,
	}
	negationWords = map[string]bool{
		"not": true, "no": true, "never": true, "n't": true, "nothing": true, "nobody": true,
		"nowhere": true, "neither": true, "nor": true, "without": true,
	}
	negativeCues = map[string]bool{
		"hate": true, "ignore": true, "ignores": true, "ignored": true, "fail": true,
		"failed": true, "fails": true, "ruin": true, "ruined": true, "break": true,
		"broke": true, "lose": true, "lost": true, "suck": true, "sucks": true,
		"wrong": true, "disappointment": true, "cancel": true, "cancelled": true,
	}
)

// SarcasmDetector matches stock ironic phrases and punctuation runs. When linguistic
// analysis is available, a sentence pairing positive adjectives with a negation or
// negative verb strengthens the verdict.
type SarcasmDetector struct{}

func NewSarcasmDetector() *SarcasmDetector {
	return &SarcasmDetector{}
}

func (d *SarcasmDetector) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	if !hasSarcasmMarker(turn.Normalized) {
		return score, nil
	}

	if a := turn.Analysis(ctx); a != nil && positiveNegativeCooccurrence(a) {
		turn.flag("sarcasm_strong")
		return score - sarcasmStrongAdjustment, nil
	}
	turn.flag("sarcasm")
	return score - sarcasmMarkerAdjustment, nil
}

func hasSarcasmMarker(normalized string) bool {
	for _, re := range sarcasmMarkers {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

func positiveNegativeCooccurrence(a *domain.Analysis) bool {
	for _, s := range a.Sentences {
		positives, negative := 0, false
		for _, tok := range s.Tokens {
			w := strings.ToLower(tok.Text)
			switch {
			case strings.HasPrefix(tok.Tag, "JJ") && positiveAdjectives[w]:
				positives++
			case negationWords[w]:
				negative = true
			case negativeCues[w] && (strings.HasPrefix(tok.Tag, "VB") || strings.HasPrefix(tok.Tag, "JJ") || strings.HasPrefix(tok.Tag, "NN")):
				negative = true
			}
		}
		if positives > 0 && negative {
			return true
		}
	}
	return false
}
