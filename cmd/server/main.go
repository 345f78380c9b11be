package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/adapter/filestore"
	"github.com/pscheid92/moodpulse/internal/adapter/httpserver"
	"github.com/pscheid92/moodpulse/internal/adapter/inference"
	"github.com/pscheid92/moodpulse/internal/adapter/metrics"
	"github.com/pscheid92/moodpulse/internal/adapter/openai"
	"github.com/pscheid92/moodpulse/internal/adapter/postgres"
	"github.com/pscheid92/moodpulse/internal/adapter/prose"
	"github.com/pscheid92/moodpulse/internal/adapter/redis"
	"github.com/pscheid92/moodpulse/internal/adapter/vader"
	"github.com/pscheid92/moodpulse/internal/app"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/config"
	"github.com/pscheid92/moodpulse/internal/platform/crypto"
	"github.com/pscheid92/moodpulse/internal/platform/logging"
	"github.com/pscheid92/moodpulse/internal/platform/version"
	"github.com/pscheid92/moodpulse/internal/sentiment"
)

// store bundles the three persistence ports, which every backend implements on one type.
type store interface {
	domain.BaselineStore
	domain.CrisisLog
	domain.MoodHistory
}

type backend struct {
	store  store
	health httpserver.HealthCheck
	close  func()
}

type metricsRegistry struct {
	http     *metrics.HTTPMetrics
	pipeline *metrics.PipelineMetrics
	breakers *metrics.BreakerMetrics
	states   *metrics.StateMetrics
	redis    *metrics.RedisMetrics
	db       *metrics.DBMetrics
	handler  http.Handler
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupMetrics() *metricsRegistry {
	reg := metrics.NewRegistry()
	return &metricsRegistry{
		http:     metrics.NewHTTPMetrics(reg),
		pipeline: metrics.NewPipelineMetrics(reg),
		breakers: metrics.NewBreakerMetrics(reg),
		states:   metrics.NewStateMetrics(reg),
		redis:    metrics.NewRedisMetrics(reg),
		db:       metrics.NewDBMetrics(reg),
		handler:  metrics.Handler(reg),
	}
}

func setupBackend(ctx context.Context, cfg *config.Config, m *metricsRegistry, clock clockwork.Clock) (backend, error) {
	cipher, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		return backend{}, fmt.Errorf("failed to create encryption service: %w", err)
	}
	if _, ok := cipher.(crypto.NoopService); ok {
		slog.Warn("ENCRYPTION_KEY not set, storing mood history and crisis records unencrypted")
	}

	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL, redis.ClientOptions{Recorder: m.redis, Observer: m.breakers})
		if err != nil {
			return backend{}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return backend{
			store:  redis.NewStore(client, cipher),
			health: httpserver.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return client.Ping(ctx).Err() }},
			close:  func() { _ = client.Close() },
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewMetricsTracer(m.db))
		if err != nil {
			return backend{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
			pool.Close()
			return backend{}, fmt.Errorf("failed to run migrations: %w", err)
		}
		return backend{
			store:  postgres.NewStore(pool, cipher),
			health: httpserver.HealthCheck{Name: "postgres", Check: pool.Ping},
			close:  pool.Close,
		}, nil

	default:
		fs, err := filestore.New(cfg.DataDir, clock, cipher)
		if err != nil {
			return backend{}, fmt.Errorf("failed to open data directory: %w", err)
		}
		return backend{
			store: fs,
			health: httpserver.HealthCheck{Name: "filestore", Check: func(context.Context) error {
				_, err := os.Stat(cfg.DataDir)
				return err
			}},
			close: func() {},
		}, nil
	}
}

// breakerAvailable treats a half-open breaker as available, since it admits trial calls.
func breakerAvailable(state func() circuitbreaker.State) func() bool {
	return func() bool { return state() != circuitbreaker.OpenState }
}

func setupAnalyzer(ctx context.Context, cfg *config.Config, st store, m *metricsRegistry, clock clockwork.Clock) (*sentiment.Analyzer, []httpserver.Capability, error) {
	primary := httpserver.Capability{Name: "primary"}
	embeddings := httpserver.Capability{Name: "embeddings"}
	linguistic := httpserver.Capability{Name: "linguistic", Enabled: cfg.LinguisticAnalysis}
	lexicon := httpserver.Capability{Name: "lexicon", Enabled: true}

	opts := sentiment.Options{
		Lexicon:   vader.NewScorer(),
		Baselines: st,
		CrisisLog: st,
		Recorder:  m.pipeline,
		Clock:     clock,
	}

	if cfg.InferenceURL != "" {
		client, err := inference.NewClient(inference.Config{
			URL:      cfg.InferenceURL,
			Timeout:  cfg.InferenceTimeout,
			Observer: m.breakers,
			Clock:    clock,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create inference client: %w", err)
		}
		opts.Primary = client
		primary.Enabled = true
		primary.Available = breakerAvailable(client.BreakerState)
		slog.Info("Primary sentiment model enabled", "url", cfg.InferenceURL)
	} else {
		slog.Warn("INFERENCE_URL not set, scoring with the lexicon fallback only")
	}

	if cfg.EmbeddingsEnabled() {
		embedder, err := openai.New(openai.Config{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.EmbeddingModel,
			Observer: m.breakers,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		opts.Embedder = embedder
		embeddings.Enabled = true
		embeddings.Available = breakerAvailable(embedder.BreakerState)
		slog.Info("Embeddings enabled", "model", cfg.EmbeddingModel)
	}

	if cfg.LinguisticAnalysis {
		opts.Linguistic = prose.NewAnalyzer()
	}

	analyzer, err := sentiment.NewAnalyzer(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	return analyzer, []httpserver.Capability{primary, embeddings, linguistic, lexicon}, nil
}

func runGracefulShutdown(srv *httpserver.Server, svc *app.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		svc.Stop()
		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "backend", cfg.StoreBackend, "version", version.Get().String())

	m := setupMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	be, err := setupBackend(ctx, cfg, m, clock)
	if err != nil {
		cancel()
		slog.Error("Failed to set up store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer be.close()

	analyzer, capabilities, err := setupAnalyzer(ctx, cfg, be.store, m, clock)
	cancel()
	if err != nil {
		slog.Error("Failed to set up analyzer", "error", err)
		os.Exit(1)
	}

	svc := app.NewService(analyzer, be.store, be.store, be.store, app.Config{
		AlertThreshold: cfg.AlertThreshold,
		AlertLimit:     cfg.AlertLimit,
		IdleTTL:        cfg.StateIdleTTL,
	}, clock, m.states)

	srv := httpserver.NewServer(cfg, svc, httpserver.Options{
		HealthChecks:   []httpserver.HealthCheck{be.health},
		Capabilities:   capabilities,
		HTTPMetrics:    m.http,
		MetricsHandler: m.handler,
		Clock:          clock,
	})

	done := runGracefulShutdown(srv, svc)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
