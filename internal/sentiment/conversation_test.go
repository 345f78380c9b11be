package sentiment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func conversationPipeline() *Pipeline {
	return NewPipeline([]Stage{{Name: "conversation", Apply: NewConversationContextWindow().Apply}}, nil, nil, nil)
}

func TestConversationContextWindow_RuminationFromSecondRepeat(t *testing.T) {
	p := conversationPipeline()
	state := NewState("u1")

	for i := range 6 {
		score, turn := runTurn(p, state, "nobody ever listens to me", -0.3)
		if i == 0 {
			assert.InDelta(t, -0.3, score, 1e-9)
			assert.Empty(t, turn.Flags())
			continue
		}
		assert.InDelta(t, -0.4, score, 1e-9, "repeat %d", i+1)
		assert.Equal(t, []string{"rumination"}, turn.Flags())
	}
}

func TestConversationContextWindow_DistinctMessages(t *testing.T) {
	p := conversationPipeline()
	state := NewState("u1")

	runTurn(p, state, "went for a run this morning", 0.2)
	score, turn := runTurn(p, state, "dinner with my sister tonight", 0.2)

	assert.Equal(t, 0.2, score)
	assert.Empty(t, turn.Flags())
}

func TestConversationContextWindow_CapacityAndEviction(t *testing.T) {
	p := conversationPipeline()
	state := NewState("u1")

	runTurn(p, state, "the very first message", 0)
	for i := range ConversationWindowSize {
		runTurn(p, state, fmt.Sprintf("filler number %d with distinct words %d", i, i*7), 0)
	}
	assert.Equal(t, ConversationWindowSize, state.ConversationLen())

	// The first message has been evicted, so repeating it is not rumination.
	_, turn := runTurn(p, state, "the very first message", 0)
	assert.NotContains(t, turn.Flags(), "rumination")
}

func TestConversationContextWindow_UsesEmbeddingsWhenAvailable(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(_ context.Context, text string) ([]float32, error) {
		return []float32{1, 0.1}, nil
	}}
	p := NewPipeline([]Stage{{Name: "conversation", Apply: NewConversationContextWindow().Apply}}, embedder, nil, nil)
	state := NewState("u1")

	runTurn(p, state, "i keep thinking about it", -0.2)
	score, turn := runTurn(p, state, "it will not leave my head", -0.2)

	assert.InDelta(t, -0.3, score, 1e-9)
	assert.Equal(t, []string{"rumination"}, turn.Flags())
}
