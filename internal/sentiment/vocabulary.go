package sentiment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
)

// vocabularyRetryInterval spaces re-embedding attempts for a vocabulary that has
// no embeddings yet.
const vocabularyRetryInterval = time.Minute

// batchEmbedder is implemented by providers that embed many texts in one request.
type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// vocabulary is a fixed term list matched either semantically (once its terms are
// embedded) or by keyword. A vocabulary that failed to embed retries lazily.
type vocabulary struct {
	name     string
	terms    []string
	phrases  []phrase
	embedder domain.EmbeddingProvider
	clock    clockwork.Clock

	mu          sync.RWMutex
	embeddings  [][]float32 // parallel to phrases; nil entries failed to embed
	embedded    int
	lastAttempt time.Time
}

func newVocabulary(ctx context.Context, name string, terms []string, embedder domain.EmbeddingProvider, clock clockwork.Clock) *vocabulary {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	v := &vocabulary{
		name:       name,
		terms:      terms,
		phrases:    compilePhrases(terms),
		embedder:   embedder,
		clock:      clock,
		embeddings: make([][]float32, len(terms)),
	}
	if embedder != nil {
		v.mu.Lock()
		v.embedLocked(ctx)
		v.mu.Unlock()
	}
	return v
}

func (v *vocabulary) embedLocked(ctx context.Context) {
	v.lastAttempt = v.clock.Now()

	if batch, ok := v.embedder.(batchEmbedder); ok {
		vecs, err := batch.EmbedBatch(ctx, v.terms)
		if err != nil {
			slog.WarnContext(ctx, "Failed to embed vocabulary, keyword matching only", "vocabulary", v.name, "error", err)
			return
		}
		for i, vec := range vecs {
			if i < len(v.embeddings) && vec != nil {
				v.embeddings[i] = vec
				v.embedded++
			}
		}
	} else {
		for i, term := range v.terms {
			vec, err := v.embedder.Embed(ctx, term)
			if err != nil {
				slog.WarnContext(ctx, "Failed to embed vocabulary term, keyword matching only", "vocabulary", v.name, "term", term, "error", err)
				continue
			}
			if vec != nil {
				v.embeddings[i] = vec
				v.embedded++
			}
		}
	}
	slog.DebugContext(ctx, "Vocabulary embedded", "vocabulary", v.name, "terms", len(v.terms), "embedded", v.embedded)
}

// semantic reports whether embedding-based matching is possible. A vocabulary
// without embeddings is re-embedded at most once per retry interval.
func (v *vocabulary) semantic(ctx context.Context) bool {
	v.mu.RLock()
	ready := v.embedded > 0
	v.mu.RUnlock()
	if ready || v.embedder == nil {
		return ready
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.embedded == 0 && v.clock.Since(v.lastAttempt) >= vocabularyRetryInterval {
		v.embedLocked(ctx)
	}
	return v.embedded > 0
}

// nearest returns the index and cosine similarity of the term closest to embedding.
func (v *vocabulary) nearest(embedding []float32) (int, float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	best, bestSim := -1, 0.0
	for i, e := range v.embeddings {
		if e == nil {
			continue
		}
		if sim := cosine(embedding, e); best < 0 || sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best, bestSim
}

// keyword returns the indices of terms found verbatim in normalized text.
func (v *vocabulary) keyword(normalized string) []int {
	var out []int
	for i, p := range v.phrases {
		if p.re.MatchString(normalized) {
			out = append(out, i)
		}
	}
	return out
}
