package sentiment

import "context"

const (
	ruminationThreshold  = 0.85
	ruminationAdjustment = 0.10
)

// ConversationContextWindow flags rumination: a message nearly identical to one of the
// last few. The window is updated after the comparison, once the turn is committed.
type ConversationContextWindow struct{}

func NewConversationContextWindow() *ConversationContextWindow {
	return &ConversationContextWindow{}
}

func (c *ConversationContextWindow) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	entry := conversationEntry{words: words(turn.Text), embedding: turn.Embedding(ctx)}
	state := turn.State
	turn.onCommit(func(float64) { state.conversation.push(entry) })

	for _, prev := range state.conversation.values() {
		if similarity(entry, prev) >= ruminationThreshold {
			turn.flag("rumination")
			return score - ruminationAdjustment, nil
		}
	}
	return score, nil
}

// similarity is cosine over embeddings when both sides have one, else Jaccard over words.
func similarity(a, b conversationEntry) float64 {
	if a.embedding != nil && b.embedding != nil && len(a.embedding) == len(b.embedding) {
		return cosine(a.embedding, b.embedding)
	}
	return jaccard(a.words, b.words)
}
