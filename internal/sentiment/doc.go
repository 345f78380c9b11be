// Package sentiment implements the sentiment adjustment pipeline.
//
// The Analyzer scores a message with the BaseScorer, short-circuits through the ResultCache,
// and otherwise runs the fixed stage order: profanity, anomaly, circadian, sarcasm, crisis,
// venting, gaming, idiom, conversation. Per-user history lives in a State handle which the
// caller owns; stages read it during a run and mutate it only after the final score is clamped.
package sentiment
