package sentiment

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	gamingSimilarityThreshold = 0.65
	gamingMinAdjustment       = 0.10
	gamingMaxAdjustment       = 0.20
	gamingKeywordAdjustment   = (gamingMinAdjustment + gamingMaxAdjustment) / 2
)

var gamingVocabulary = []string{
	"gg",
	"ez",
	"gg wp",
	"noob",
	"pwned",
	"clutch",
	"respawn",
	"lag",
	"nerf",
	"buff",
	"camper",
	"headshot",
	"frag",
	"boss fight",
	"raid",
	"loot",
	"grind",
	"speedrun",
	"tilted",
	"carry",
	"rage quit",
	"gank",
	"overpowered",
	"one shot",
	"killstreak",
}

// GamingContextDetector softens negative-sounding trash talk in gaming context.
type GamingContextDetector struct {
	vocab *vocabulary
}

// NewGamingContextDetector embeds the vocabulary. Without an embedder the detector
// stays in keyword mode; after a failed embedding it uses keywords until a retry succeeds.
func NewGamingContextDetector(ctx context.Context, embedder domain.EmbeddingProvider, clock clockwork.Clock) *GamingContextDetector {
	return &GamingContextDetector{vocab: newVocabulary(ctx, "gaming", gamingVocabulary, embedder, clock)}
}

func (d *GamingContextDetector) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	if d.vocab.semantic(ctx) {
		if emb := turn.Embedding(ctx); emb != nil {
			_, sim := d.vocab.nearest(emb)
			if sim < gamingSimilarityThreshold {
				return score, nil
			}
			turn.flag("gaming_context")
			return score + gamingAdjustment(sim), nil
		}
	}

	if len(d.vocab.keyword(turn.Normalized)) == 0 {
		return score, nil
	}
	turn.flag("gaming_context")
	return score + gamingKeywordAdjustment, nil
}

// gamingAdjustment interpolates from the minimum at the threshold to the maximum at similarity 1.
func gamingAdjustment(sim float64) float64 {
	frac := (min(sim, 1) - gamingSimilarityThreshold) / (1 - gamingSimilarityThreshold)
	return gamingMinAdjustment + frac*(gamingMaxAdjustment-gamingMinAdjustment)
}
