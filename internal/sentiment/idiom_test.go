package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdiomInterpreter_KeywordBlend(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		score float64
		want  float64
	}{
		{"positive slang", "this song slaps", 0, 0.32},
		{"negative slang", "that movie was mid", 0.5, 0.18},
		{"longest term wins", "no cap that was mid", 0, 0.12},
		{"curly apostrophe", "I’m dead 😂", 0, 0.24},
		{"no slang", "a literally fired up crowd", 0.2, 0.2},
	}

	d := NewIdiomInterpreter(context.Background(), nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Apply(context.Background(), tt.score, newTestTurn(tt.text))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestIdiomInterpreter_Semantic(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(_ context.Context, text string) ([]float32, error) {
		switch text {
		case "goated":
			return []float32{1, 0}, nil
		case "that chef is the greatest of all time":
			return []float32{0.95, 0.05}, nil
		}
		return []float32{0, 1}, nil
	}}
	d := NewIdiomInterpreter(context.Background(), embedder, nil)
	p := NewPipeline(nil, embedder, nil, nil)
	turn := p.newTurn("that chef is the greatest of all time", testTime, 0, 0, NewState("u1"))

	got, err := d.Apply(context.Background(), 0.5, turn)
	require.NoError(t, err)
	assert.InDelta(t, 0.66, got, 1e-9)
	assert.Equal(t, []string{"idiom"}, turn.Flags())
}
