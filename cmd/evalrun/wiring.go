package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/agentlab/evalrun/infrastructure/export"
	"github.com/agentlab/evalrun/infrastructure/llm"
	"github.com/agentlab/evalrun/infrastructure/storage"
	"github.com/agentlab/evalrun/internal/agent"
	"github.com/agentlab/evalrun/internal/application"
	"github.com/agentlab/evalrun/internal/ports"
)

// app bundles the wired application service with the resources the
// command must release when done.
type app struct {
	service *application.EvaluationService
	store   *storage.SQLiteStore
}

func (a *app) Close() error { return a.store.Close() }

// buildApp wires the full application from configuration: SQLite store,
// YAML benchmark catalog, agent registry, LLM provider registry with the
// configured resilience middleware, and the exporters.
func buildApp(ctx context.Context) (*app, error) {
	store, err := storage.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	benchmarks, err := storage.NewYAMLBenchmarkStore(cfg.Benchmarks.Dir)
	if err != nil {
		store.Close()
		return nil, err
	}

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:         llm.DefaultProviders,
		DefaultProvider:   cfg.LLM.DefaultProvider,
		DefaultTimeout:    cfg.LLM.Timeout(),
		DefaultMiddleware: resilienceMiddleware(),
	})
	if err != nil {
		store.Close()
		return nil, eris.Wrap(err, "build provider registry")
	}

	service := application.NewEvaluationService(
		store.Evaluations(),
		store.Results(),
		benchmarks,
		agent.NewRegistry(),
		llm.NewAgentClientFactory(llm.NewClientFactory(registry)),
		map[string]ports.ResultExporter{
			"csv":  export.NewCSVExporter(),
			"json": export.NewJSONExporter(),
		},
		application.MatchConfig{
			Mode:             application.MatchMode(cfg.Matching.Mode),
			MaxDistanceRatio: cfg.Matching.MaxDistanceRatio,
		},
		zap.L(),
	)

	return &app{service: service, store: store}, nil
}

// resilienceMiddleware builds the provider middleware chain from
// configuration. Order matters: metrics and tracing observe everything,
// retries sit inside the circuit breaker so a tripped breaker is not
// retried against, and the rate limiter and timeout gate each individual
// attempt.
func resilienceMiddleware() []llm.Middleware {
	r := cfg.Resilience
	var chain []llm.Middleware

	if r.MetricsEnabled {
		chain = append(chain, llm.MetricsMiddleware(llm.NewPrometheusMetrics(prometheus.DefaultRegisterer)))
	}
	if r.TracingEnabled {
		chain = append(chain, llm.TracingMiddleware("evalrun"))
	}
	if r.FailureThreshold > 0 {
		chain = append(chain, llm.CircuitBreakerMiddleware(
			r.FailureThreshold, time.Duration(r.CooldownSecs)*time.Second))
	}
	if r.MaxRetries > 0 {
		base := time.Duration(r.InitialBackoffMs) * time.Millisecond
		chain = append(chain, llm.RetryMiddleware(r.MaxRetries, base, 30*time.Second, r.JitterFraction))
	}
	if cfg.LLM.RequestsPerSecond > 0 {
		burst := r.BurstSize
		if burst < 1 {
			burst = 1
		}
		chain = append(chain, llm.RateLimitMiddleware(rate.Limit(cfg.LLM.RequestsPerSecond), burst))
	}
	if d := cfg.LLM.Timeout(); d > 0 {
		chain = append(chain, llm.TimeoutMiddleware(d))
	}
	return chain
}
