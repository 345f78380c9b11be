// Package prose implements linguistic analysis on the prose NLP library.
package prose

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/pscheid92/moodpulse/internal/domain"
)

var _ domain.LinguisticAnalyzer = (*Analyzer)(nil)

// Analyzer tags tokens and segments sentences. Named-entity extraction is off.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (*domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	tokens := make([]domain.Token, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		tokens = append(tokens, domain.Token{Text: tok.Text, Tag: tok.Tag})
	}

	return &domain.Analysis{
		Tokens:    tokens,
		Sentences: assignSentences(doc.Sentences(), tokens),
	}, nil
}

// assignSentences distributes tokens over sentences in order. A token belongs to
// the sentence whose text contains it at or after the current search offset.
func assignSentences(sents []prose.Sentence, tokens []domain.Token) []domain.Sentence {
	out := make([]domain.Sentence, len(sents))
	ti := 0
	for si, s := range sents {
		out[si].Text = s.Text
		cursor := 0
		for ti < len(tokens) {
			idx := strings.Index(s.Text[cursor:], tokens[ti].Text)
			if idx < 0 {
				break
			}
			out[si].Tokens = append(out[si].Tokens, tokens[ti])
			cursor += idx + len(tokens[ti].Text)
			ti++
		}
	}
	if ti < len(tokens) && len(out) > 0 {
		last := &out[len(out)-1]
		last.Tokens = append(last.Tokens, tokens[ti:]...)
	}
	return out
}
