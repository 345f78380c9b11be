package sentiment

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	idiomSimilarityThreshold = 0.7
	idiomBlendWeight         = 0.40
)

type idiom struct {
	term  string
	value float64
}

var idioms = []idiom{
	{"slaps", 0.8},
	{"bussin", 0.9},
	{"no cap", 0.3},
	{"fire", 0.8},
	{"goated", 0.9},
	{"lit", 0.7},
	{"based", 0.5},
	{"mid", -0.3},
	{"sus", -0.4},
	{"cringe", -0.6},
	{"salty", -0.5},
	{"i'm dead", 0.6},
	{"slay", 0.8},
	{"hits different", 0.7},
	{"rizz", 0.6},
	{"bet", 0.4},
	{"valid", 0.5},
	{"ratio", -0.4},
}

// IdiomInterpreter blends the fixed sentiment of a recognized slang term into the score.
type IdiomInterpreter struct {
	vocab  *vocabulary
	values []float64
}

func NewIdiomInterpreter(ctx context.Context, embedder domain.EmbeddingProvider, clock clockwork.Clock) *IdiomInterpreter {
	terms := make([]string, len(idioms))
	values := make([]float64, len(idioms))
	for i, id := range idioms {
		terms[i] = id.term
		values[i] = id.value
	}
	return &IdiomInterpreter{vocab: newVocabulary(ctx, "idiom", terms, embedder, clock), values: values}
}

func (d *IdiomInterpreter) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	idx := d.match(ctx, turn)
	if idx < 0 {
		return score, nil
	}
	turn.flag("idiom")
	return (1-idiomBlendWeight)*score + idiomBlendWeight*d.values[idx], nil
}

// match returns the best entry for the turn, or -1. Semantic matching wins when
// embeddings exist; otherwise the longest verbatim term is taken.
func (d *IdiomInterpreter) match(ctx context.Context, turn *Turn) int {
	if d.vocab.semantic(ctx) {
		if emb := turn.Embedding(ctx); emb != nil {
			idx, sim := d.vocab.nearest(emb)
			if sim > idiomSimilarityThreshold {
				return idx
			}
			return -1
		}
	}

	best := -1
	for _, i := range d.vocab.keyword(turn.Normalized) {
		if best < 0 || len(d.vocab.phrases[i].term) > len(d.vocab.phrases[best].term) {
			best = i
		}
	}
	return best
}
