package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ceo-dashboard/internal/config"
	"ceo-dashboard/internal/generator"
	"ceo-dashboard/internal/insights"
	"ceo-dashboard/internal/llm"
	"ceo-dashboard/internal/middleware"
	"ceo-dashboard/internal/observability"
	"ceo-dashboard/internal/server"
	"ceo-dashboard/internal/services"
	"ceo-dashboard/internal/storage"
	"ceo-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	loadTimeout   = 2 * time.Minute
	maxBodyBytes  = 1 << 20
	cacheMaxAge   = "private, max-age=60"
)

func dashboardHandler(analytics *services.Analytics, advisor *insights.Advisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		props := templates.DashboardProps{Provider: advisor.Provider()}
		if first, last, ok := analytics.DateRange(); ok {
			props.FirstDate = first.Format(time.DateOnly)
			props.LastDate = last.Format(time.DateOnly)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newTextGenerator(cfg config.LLMConfig) (llm.TextGenerator, error) {
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return llm.New(llm.Options{
		Provider:          provider,
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		Timeout:           cfg.Timeout.Duration,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		CacheSize:         cfg.CacheSize,
	})
}

func newHandler(cfg *config.Config, logger *slog.Logger, deps server.Dependencies) http.Handler {
	srv := server.NewServer(deps)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(logger),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.MaxBodyBytes(maxBodyBytes),
	)

	return middlewareChain(srv)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_backend", cfg.Data.Backend,
		"llm_provider", cfg.LLM.Provider,
	)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	backend, err := storage.OpenBackend(ctx, cfg.Data)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	store := storage.NewStore(backend, logger)
	gen := generator.New(cfg.Data.Seed, time.Now)
	genOpts := storage.GenerateOptions{Days: cfg.Data.Days, BaseVolume: cfg.Data.BaseVolume}

	analytics := services.NewAnalytics(services.WithLogger(logger))
	if err := analytics.Load(ctx, store, gen, genOpts); err != nil {
		return err
	}

	textGen, err := newTextGenerator(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configure llm: %w", err)
	}
	advisor := insights.NewAdvisor(analytics, textGen, logger, cfg.LLM.Timeout.Duration)

	handler := newHandler(cfg, logger, server.Dependencies{
		Analytics: analytics,
		Advisor:   advisor,
		Logger:    logger,
		Templates: &server.TemplateHandlers{Dashboard: dashboardHandler(analytics, advisor)},
		Regenerate: func(ctx context.Context) error {
			return analytics.Regenerate(ctx, store, gen, genOpts)
		},
	})

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("analytics service stopped", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		return err
	}
	logger.Info("application stopped gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}
