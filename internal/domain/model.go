package domain

import "context"

// PrimarySentimentModel is the transformer classifier. Infer returns a score in [-1, 1]
// or ErrModelUnavailable when the model cannot be reached.
type PrimarySentimentModel interface {
	Infer(ctx context.Context, text string, maxTokens int) (float64, error)
}

// LexiconScorer is the deterministic lexicon-based estimate. It never fails.
type LexiconScorer interface {
	Score(text string) float64
}

// Token is a single word of linguistic analysis output.
type Token struct {
	Text string
	Tag  string // Penn Treebank part-of-speech tag
}

// Sentence groups the tokens between two sentence boundaries.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analysis is the result of linguistic analysis.
type Analysis struct {
	Tokens    []Token
	Sentences []Sentence
}

// LinguisticAnalyzer sharpens the sarcasm and venting detectors. It is never required for correctness.
type LinguisticAnalyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// EmbeddingProvider maps text to a semantic vector. A nil vector with a nil error
// means the provider had nothing to say about the text.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
