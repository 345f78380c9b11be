// Package vader implements the lexicon scorer on VADER plus a heuristic for
// informal writing VADER tends to read as neutral.
package vader

import (
	"regexp"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
	"github.com/pscheid92/moodpulse/internal/domain"
)

var _ domain.LexiconScorer = (*Scorer)(nil)

// Scorer is safe for concurrent use. govader keeps internal scratch state, so
// calls into it are serialized.
type Scorer struct {
	mu  sync.Mutex
	sia *govader.SentimentIntensityAnalyzer
}

func NewScorer() *Scorer {
	return &Scorer{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound score adjusted by Enhancement, in [-1, 1].
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	s.mu.Lock()
	compound := s.sia.PolarityScores(text).Compound
	s.mu.Unlock()

	return Combine(compound, Enhancement(text))
}

// Combine applies an enhancement to a base score. Strong positive signals on a
// neutral-or-better base always land at 0.4 or above.
func Combine(base, enhancement float64) float64 {
	final := base + enhancement
	if base >= -0.1 && enhancement > 0.4 {
		final = max(final, 0.4)
	}
	return domain.ClampScore(final)
}

type weighted struct {
	re     *regexp.Regexp
	weight float64
}

func phrases(table map[string]float64) []weighted {
	out := make([]weighted, 0, len(table))
	for p, w := range table {
		out = append(out, weighted{re: wordPattern(p), weight: w})
	}
	return out
}

func wordPattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
}

var (
	capsWord = regexp.MustCompile(`\b[A-Z]{3,}\b`)

	excitedCaps = []string{"YESSS", "WOOO", "LETS", "GO", "AWESOME", "AMAZING", "GREAT", "LOVE", "WIN", "YES"}

	positiveSlang = phrases(map[string]float64{
		"yay": 0.4, "yayyy": 0.5, "yayyyy": 0.6,
		"wooo": 0.4, "woooo": 0.5, "wooooo": 0.6,
		"lessgo": 0.5, "letsgo": 0.5, "lessgoo": 0.5,
		"poggers": 0.4, "pog": 0.3, "lit": 0.3,
		"fire": 0.3, "sick": 0.2, "dope": 0.3,
		"hype": 0.4, "hyped": 0.4, "pumped": 0.4,
		"stoked": 0.4, "psyched": 0.4, "amped": 0.4,
		"vibes": 0.2, "vibing": 0.3, "mood": 0.1,
		"slay": 0.3, "slaying": 0.3, "killing": 0.2,
		"bet": 0.2, "facts": 0.2, "no cap": 0.3,
		"fr": 0.1, "periodt": 0.2, "period": 0.1,
	})

	negativeSlang = phrases(map[string]float64{
		"bruh": -0.1, "ugh": -0.2, "meh": -0.2, "bleh": -0.2,
		"cringe": -0.3, "cringing": -0.3, "yikes": -0.2,
		"oof": -0.2, "rip": -0.1, "dead": -0.2,
		"kill me": -0.5, "end me": -0.4, "done": -0.1,
	})

	actionWords = phrases(map[string]float64{
		"winning": 0.2, "crushing": 0.2, "nailing": 0.2,
		"acing": 0.2, "dominating": 0.2, "succeeding": 0.2,
	})

	overwhelming = phrases(map[string]float64{
		"absolutely love": 0.3, "so happy": 0.3, "best day": 0.3,
		"amazing day": 0.3, "incredible": 0.3, "fantastic": 0.3,
	})

	emoticons = []string{":)", ":D", "=D", ":P", ";)", ":-)", "=)", "xD", "XD"}
)

// Enhancement scores informal expression: elongated words, shouting, slang,
// exclamation, emoticons and a few stock phrases.
func Enhancement(text string) float64 {
	lower := strings.ToLower(text)
	var e float64

	e += 0.3 * float64(positiveRepeats(lower))

	if caps := capsWord.FindAllString(text, -1); len(caps) > 0 {
		excited := 0
		for _, w := range caps {
			for _, x := range excitedCaps {
				if strings.Contains(w, x) {
					excited++
					break
				}
			}
		}
		switch {
		case excited > 0:
			e += 0.25 * float64(excited)
		case len(caps) > 2:
			e += 0.2
		}
	}

	e += sumMatches(lower, positiveSlang)

	if n := strings.Count(text, "!"); n > 0 {
		e += min(0.3, 0.1*float64(n))
	}
	if strings.Contains(text, "?") && strings.Contains(text, "!") {
		e += 0.2
	}

	for _, emo := range emoticons {
		if strings.Contains(text, emo) {
			e += 0.2
			break
		}
	}

	e += sumMatches(lower, actionWords)
	e += sumMatches(lower, overwhelming)
	e += sumMatches(lower, negativeSlang)
	return e
}

func sumMatches(lower string, table []weighted) float64 {
	var total float64
	for _, w := range table {
		if w.re.MatchString(lower) {
			total += w.weight
		}
	}
	return total
}

// positiveRepeats counts runs of three or more of the same letter where the
// letter is one people stretch when excited ("yayyy", "wooo").
func positiveRepeats(lower string) int {
	count := 0
	runes := []rune(lower)
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 3 && strings.ContainsRune("yaoewh", runes[i]) {
			count++
		}
		i = j
	}
	return count
}
