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

	"github.com/kirillkom/docs-backend/internal/bootstrap"
	"github.com/kirillkom/docs-backend/internal/config"
	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/observability/logging"
	"github.com/kirillkom/docs-backend/internal/observability/metrics"
)

const (
	serviceName       = "docs-worker"
	summaryJobTimeout = 5 * time.Minute
)

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

	if !cfg.QueueEnabled() {
		slog.Error("worker_requires_queue", "hint", "set NATS_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		DeliveryObserver: func(lag time.Duration) {
			workerMetrics.ObserveQueueLag(serviceName, lag)
		},
		BreakerObserver: func(operation string, state gobreaker.State) {
			workerMetrics.SetBreakerState(serviceName, operation, int(state))
		},
		DrainTimeout: summaryJobTimeout + 30*time.Second,
	})
	if err != nil {
		slog.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	// Subscribe returns only after the drained handlers finish, so the DB outlives them.
	defer app.Close()

	app.Observe(nil, func(res domain.SummaryResult, err error) {
		model := res.Model
		if model == "" {
			model = cfg.LLMModel
		}
		workerMetrics.RecordSummary(serviceName, model, res.PromptTokens, res.CompletionTokens, err)
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID int64) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, summaryJobTimeout)
		defer cancel()

		workerMetrics.StartJob()
		start := time.Now()
		err := app.Processor.ProcessByID(processCtx, documentID)
		workerMetrics.FinishJob(serviceName, time.Since(start), err)
		if err == nil {
			slog.Info("summary_job_done", "document_id", documentID, "duration_ms", time.Since(start).Milliseconds())
		}
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_error", "error", err)
	}
}
