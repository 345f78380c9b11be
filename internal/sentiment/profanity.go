package sentiment

import (
	"context"
	"strings"
)

const (
	profanitySwingThreshold = 0.10
	profanityFullSwing      = 0.50
	profanityMaxAdjustment  = 0.15
)

var profanityLexicon = map[string]bool{
	"fuck": true, "fucking": true, "fucked": true, "fck": true,
	"shit": true, "shitty": true, "crap": true, "damn": true,
	"hell": true, "bitch": true, "ass": true, "bastard": true,
	"wtf": true, "goddamn": true, "piss": true, "pissed": true,
}

// ProfanityShiftDetector rescores the text without its profane tokens. When
// removing them lifts the score noticeably, the profanity is read as masked distress
// and the score is pushed down, proportionally to the swing.
type ProfanityShiftDetector struct {
	scorer *BaseScorer
}

func NewProfanityShiftDetector(scorer *BaseScorer) *ProfanityShiftDetector {
	return &ProfanityShiftDetector{scorer: scorer}
}

func (d *ProfanityShiftDetector) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	all := words(turn.Text)
	kept := make([]string, 0, len(all))
	for _, w := range all {
		if !profanityLexicon[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == len(all) || len(kept) == 0 {
		return score, nil
	}

	with, withSource := d.scorer.Score(ctx, strings.Join(all, " "))
	without, withoutSource := d.scorer.Score(ctx, strings.Join(kept, " "))
	// A blended score and a lexicon-only score are not comparable.
	if withSource != withoutSource {
		return score, nil
	}

	adj := profanityAdjustment(without - with)
	if adj == 0 {
		return score, nil
	}
	turn.flag("profanity_distress")
	return score - adj, nil
}

// profanityAdjustment scales linearly with the swing and reaches the cap at
// profanityFullSwing. Swings at or below the threshold are casual emphasis.
func profanityAdjustment(swing float64) float64 {
	if swing <= profanitySwingThreshold {
		return 0
	}
	return min(profanityMaxAdjustment, profanityMaxAdjustment*swing/profanityFullSwing)
}
