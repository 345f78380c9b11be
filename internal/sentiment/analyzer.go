package sentiment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
)

// DefaultUserID names the shared State used when a caller passes none.
const DefaultUserID = "global"

// Options wires the analyzer's collaborators. Only Lexicon is required; every other
// collaborator is optional and its absence degrades the stages that use it.
type Options struct {
	Primary    domain.PrimarySentimentModel
	Lexicon    domain.LexiconScorer
	Linguistic domain.LinguisticAnalyzer
	Embedder   domain.EmbeddingProvider
	Baselines  domain.BaselineStore
	CrisisLog  domain.CrisisLog
	Recorder   Recorder

	// CacheCapacity <= 0 selects DefaultCacheCapacity.
	CacheCapacity int
	Clock         clockwork.Clock
}

// Result is the outcome of one analysis.
type Result struct {
	Score         float64
	Source        domain.ConfidenceSource
	Cached        bool
	Flags         []string
	CrisisMatched []string
}

// Analyzer is the top-level scorer: cache, base score, adjustment pipeline.
type Analyzer struct {
	scorer    *BaseScorer
	pipeline  *Pipeline
	cache     *ResultCache
	crisis    *CrisisKeywordScanner
	baselines domain.BaselineStore
	recorder  Recorder
	clock     clockwork.Clock

	global *State
}

// NewAnalyzer assembles the pipeline in its fixed order. Vocabulary embeddings are
// computed here, so ctx bounds any embedding calls made during construction.
func NewAnalyzer(ctx context.Context, opts Options) (*Analyzer, error) {
	if opts.Lexicon == nil {
		return nil, errors.New("lexicon scorer is required")
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	scorer := NewBaseScorer(opts.Primary, opts.Lexicon)
	crisis := NewCrisisKeywordScanner(opts.CrisisLog)

	stages := []Stage{
		{Name: "profanity", Apply: NewProfanityShiftDetector(scorer).Apply},
		{Name: "anomaly", Apply: NewStatisticalAnomalyDetector().Apply},
		{Name: "circadian", Apply: NewCircadianBaselineTracker(opts.Baselines).Apply},
		{Name: "sarcasm", Apply: NewSarcasmDetector().Apply},
		{Name: "crisis", Apply: crisis.Apply},
		{Name: "venting", Apply: NewVentingPatternDetector().Apply},
		{Name: "gaming", Apply: NewGamingContextDetector(ctx, opts.Embedder, opts.Clock).Apply},
		{Name: "idiom", Apply: NewIdiomInterpreter(ctx, opts.Embedder, opts.Clock).Apply},
		{Name: "conversation", Apply: NewConversationContextWindow().Apply},
	}

	a := &Analyzer{
		scorer:    scorer,
		pipeline:  NewPipeline(stages, opts.Embedder, opts.Linguistic, opts.Recorder),
		cache:     NewResultCache(opts.CacheCapacity),
		crisis:    crisis,
		baselines: opts.Baselines,
		recorder:  opts.Recorder,
		clock:     opts.Clock,
	}
	a.global = a.LoadState(ctx, DefaultUserID)
	return a, nil
}

// LoadState creates a State for userID and seeds its circadian profile from the
// baseline store. An unreadable profile is a cold start, not an error.
func (a *Analyzer) LoadState(ctx context.Context, userID string) *State {
	state := NewState(userID)
	if a.baselines == nil {
		return state
	}

	baselines, err := a.baselines.LoadBaselines(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load circadian baselines, starting cold", "user_id", userID, "error", err)
		return state
	}
	if dropped := state.LoadBaselines(baselines); dropped > 0 {
		slog.WarnContext(ctx, "Dropped invalid circadian baseline entries", "user_id", userID, "dropped", dropped)
	}
	return state
}

// GlobalState is the State used when Analyze receives nil.
func (a *Analyzer) GlobalState() *State { return a.global }

// Stages returns the pipeline stage names in run order.
func (a *Analyzer) Stages() []string { return a.pipeline.Stages() }

// Cache exposes the result cache for inspection and resets.
func (a *Analyzer) Cache() *ResultCache { return a.cache }

// AnalyzeSentiment scores text at ts against state and returns only the score.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, text string, ts time.Time, state *State) float64 {
	return a.Analyze(ctx, domain.Message{Text: text, Timestamp: ts}, state).Score
}

// Analyze scores a message. A cache hit returns the stored score without touching
// state. Empty text scores 0 and leaves state untouched.
func (a *Analyzer) Analyze(ctx context.Context, msg domain.Message, state *State) Result {
	start := a.clock.Now()
	if state == nil {
		state = a.global
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = start
	}

	if strings.TrimSpace(msg.Text) == "" {
		return Result{Score: 0, Source: domain.SourceFallback}
	}

	if score, source, ok := a.cache.Get(msg.Text); ok {
		res := Result{Score: score, Source: source, Cached: true}
		if flagged, matched := a.crisis.Scan(msg.Text); flagged {
			res.CrisisMatched = matched
			a.recordCrisis(ctx, state.UserID(), msg, matched, score)
		}
		a.recorder.ObserveAnalysis("cache", a.clock.Since(start))
		return res
	}

	raw, source, score, turn := a.run(ctx, msg, state)

	if evicted := a.cache.Put(msg.Text, score, source); evicted > 0 {
		a.recorder.CacheEvicted(evicted)
	}
	if len(turn.CrisisMatched()) > 0 {
		a.recordCrisis(ctx, state.UserID(), msg, turn.CrisisMatched(), score)
	}

	a.recorder.ObserveAnalysis(source.String(), a.clock.Since(start))
	slog.DebugContext(ctx, "Message analyzed", "user_id", state.UserID(), "raw", raw, "score", score, "source", source.String(), "flags", turn.Flags())

	return Result{
		Score:         score,
		Source:        source,
		Flags:         turn.Flags(),
		CrisisMatched: turn.CrisisMatched(),
	}
}

// run scores msg and commits the turn while holding the state's lock.
func (a *Analyzer) run(ctx context.Context, msg domain.Message, state *State) (float64, domain.ConfidenceSource, float64, *Turn) {
	state.mu.Lock()
	defer state.mu.Unlock()

	raw, source := a.scorer.Score(ctx, msg.Text)
	turn := a.pipeline.newTurn(msg.Text, msg.Timestamp, raw, source, state)
	score := a.pipeline.Run(ctx, raw, turn)
	turn.commit(score)
	return raw, source, score, turn
}

func (a *Analyzer) recordCrisis(ctx context.Context, userID string, msg domain.Message, matched []string, score float64) {
	a.recorder.CrisisDetected()
	a.crisis.Record(ctx, userID, msg.Text, matched, score, msg.Timestamp)
}
