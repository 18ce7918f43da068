package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"

	httpadapter "github.com/kirillkom/docs-backend/internal/adapters/http"
	"github.com/kirillkom/docs-backend/internal/bootstrap"
	"github.com/kirillkom/docs-backend/internal/config"
	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/observability/logging"
	"github.com/kirillkom/docs-backend/internal/observability/metrics"
)

const serviceName = "docs-api"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("dotenv_error", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		BreakerObserver: func(operation string, state gobreaker.State) {
			httpMetrics.SetBreakerState(serviceName, operation, int(state))
		},
	})
	if err != nil {
		slog.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	app.Observe(
		func(format string, d time.Duration, err error) {
			httpMetrics.RecordExtraction(serviceName, format, d, err)
		},
		func(res domain.SummaryResult, err error) {
			model := res.Model
			if model == "" {
				model = cfg.LLMModel
			}
			httpMetrics.RecordSummary(serviceName, model, res.PromptTokens, res.CompletionTokens, err)
		},
	)

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Accounts:   app.Accounts,
		Documents:  app.Documents,
		Ingestor:   app.Ingestor,
		Summarizer: app.Summarizer,
	},
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithReadiness(app.Ready),
		httpadapter.WithStorageBackend(app.StorageBackend()),
	).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "storage", cfg.StorageType, "queue_enabled", cfg.QueueEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
