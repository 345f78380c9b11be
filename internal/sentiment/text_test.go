package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "self harm is real", normalize("  Self-Harm   is\tREAL "))
	assert.Equal(t, "i'm dead", normalize("I’m dead"))
	assert.Equal(t, "rage quit", normalize("rage_quit"))
}

func TestMatchPhrases_WordBoundaries(t *testing.T) {
	phrases := compilePhrases([]string{"lag", "gg wp"})

	assert.Equal(t, []string{"lag"}, matchPhrases(phrases, "so much lag today"))
	assert.Empty(t, matchPhrases(phrases, "raise the flag"))
	assert.Equal(t, []string{"gg wp"}, matchPhrases(phrases, "gg wp everyone"))
	assert.Empty(t, matchPhrases(phrases, "ggwp"))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"Hi there.", "How are you?!", "fine"}, splitSentences("Hi there. How are you?! fine"))
	assert.Empty(t, splitSentences("   "))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, cosine(nil, nil))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}))
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
	assert.InDelta(t, 1.0, jaccard([]string{"a", "a", "b"}, []string{"b", "a", "b"}), 1e-9)
	assert.Equal(t, 0.0, jaccard(nil, []string{"a"}))
}
