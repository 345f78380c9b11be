package sentiment

import (
	"math"
	"regexp"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`[a-z0-9']+`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)
	spaceReplacer   = strings.NewReplacer("-", " ", "_", " ", "’", "'", "‘", "'")
)

// normalize lowercases text and folds hyphens, underscores and curly quotes
// so that "Self-Harm" and "self harm" match the same phrase.
func normalize(text string) string {
	return strings.Join(strings.Fields(spaceReplacer.Replace(strings.ToLower(text))), " ")
}

// words returns the lowercase word tokens of text.
func words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// splitSentences is the fallback sentence splitter used when no linguistic analyzer is configured.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// phrase is a fixed vocabulary term matched on word boundaries.
type phrase struct {
	term string
	re   *regexp.Regexp
}

func compilePhrases(terms []string) []phrase {
	out := make([]phrase, 0, len(terms))
	for _, term := range terms {
		out = append(out, phrase{
			term: term,
			re:   regexp.MustCompile(`(?:^|[^a-z0-9'])` + regexp.QuoteMeta(normalize(term)) + `(?:$|[^a-z0-9'])`),
		})
	}
	return out
}

// matchPhrases returns the terms found in normalized text, in vocabulary order.
func matchPhrases(phrases []phrase, normalized string) []string {
	var matched []string
	for _, p := range phrases {
		if p.re.MatchString(normalized) {
			matched = append(matched, p.term)
		}
	}
	return matched
}

// cosine returns the cosine similarity of a and b, or 0 when either is empty,
// zero-length, or their dimensions differ.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// jaccard returns the Jaccard similarity of the word sets of a and b.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = false
	}
	union := len(set)
	inter := 0
	for _, w := range b {
		seen, ok := set[w]
		switch {
		case !ok:
			set[w] = true
			union++
		case !seen:
			set[w] = true
			inter++
		}
	}
	return float64(inter) / float64(union)
}
