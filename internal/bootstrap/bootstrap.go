package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/docs-backend/internal/config"
	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
	"github.com/kirillkom/docs-backend/internal/core/usecase"
	"github.com/kirillkom/docs-backend/internal/infrastructure/chunking"
	"github.com/kirillkom/docs-backend/internal/infrastructure/extractor"
	"github.com/kirillkom/docs-backend/internal/infrastructure/llm/openai"
	"github.com/kirillkom/docs-backend/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docs-backend/internal/infrastructure/queue/noop"
	"github.com/kirillkom/docs-backend/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docs-backend/internal/infrastructure/resilience"
	"github.com/kirillkom/docs-backend/internal/infrastructure/security"
	"github.com/kirillkom/docs-backend/internal/infrastructure/session"
	"github.com/kirillkom/docs-backend/internal/infrastructure/storage"
	"github.com/kirillkom/docs-backend/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docs-backend/internal/infrastructure/storage/s3"
)

type App struct {
	Config config.Config

	Queue      ports.MessageQueue
	Accounts   ports.AccountService
	Documents  ports.DocumentService
	Ingestor   ports.DocumentIngestor
	Summarizer ports.DocumentSummarizer
	Processor  ports.DocumentProcessor

	db         *sql.DB
	extractors *extractor.Registry
	summaries  *usecase.SummarizeDocumentUseCase
	objects    ports.ObjectStorage
	probes     []func(context.Context) error
	closers    []func()
}

// Options tweak how New connects to optional infrastructure.
type Options struct {
	// DeliveryObserver receives publish-to-delivery lag for queued summary jobs.
	DeliveryObserver func(time.Duration)
	// BreakerObserver is told about circuit breaker transitions of the LLM and broker calls.
	BreakerObserver resilience.StateObserver
	// DrainTimeout bounds how long a stopping subscriber waits for in-flight jobs.
	DrainTimeout time.Duration
}

func (o Options) executor(cfg resilience.Config) *resilience.Executor {
	if o.BreakerObserver == nil {
		return resilience.NewExecutor(cfg)
	}
	return resilience.NewExecutor(cfg, resilience.WithStateObserver(o.BreakerObserver))
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	users := postgres.NewUserRepository(db)
	docs := postgres.NewDocumentRepository(db)

	objects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.objects = objects

	revocations, err := newRevocationStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store, isRedis := revocations.(*session.RedisStore); isRedis {
		app.probes = append(app.probes, store.Ping)
		app.closers = append(app.closers, func() { _ = store.Close() })
	}

	issuer, err := security.NewJWTIssuer(cfg.SecretKey, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	queue, err := newQueue(cfg, opts)
	if err != nil {
		return nil, err
	}
	if q, isNATS := queue.(*nats.Queue); isNATS {
		app.closers = append(app.closers, q.Close)
	}
	app.Queue = queue

	llm := openai.New(openai.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		Prompt: openai.PromptConfig{
			Lines:    cfg.SummaryLines,
			Language: cfg.SummaryLanguage,
		},
	}, opts.executor(resilience.LLMConfig()))

	app.extractors = extractor.NewDefaultRegistry()
	slog.Info("extractors_ready", "formats", app.extractors.Formats())
	app.summaries = usecase.NewSummarizeDocumentUseCase(
		docs,
		llm,
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		usecase.SummaryOptions{Mode: cfg.SummaryMode, MaxChars: cfg.SummaryMaxChars},
	)

	app.Accounts = usecase.NewAccountUseCase(users, security.NewBcryptHasher(cfg.BcryptCost), issuer, revocations)
	app.Documents = usecase.NewDocumentUseCase(docs, objects)
	app.Ingestor = usecase.NewIngestDocumentUseCase(docs, objects, app.extractors, queue, usecase.IngestOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		QueueEnabled:   cfg.QueueEnabled(),
	})
	app.Summarizer = app.summaries
	app.Processor = app.summaries

	ok = true
	return app, nil
}

// Observe attaches metric hooks to text extraction and model calls.
func (a *App) Observe(extraction extractor.Observer, summary func(domain.SummaryResult, error)) {
	if extraction != nil {
		a.extractors.SetObserver(extraction)
	}
	if summary != nil {
		a.summaries.OnSummary(summary)
	}
}

// StorageBackend names the backend new uploads are written to.
func (a *App) StorageBackend() string {
	return a.objects.Backend()
}

// Ready reports whether the database and the revocation store answer.
func (a *App) Ready(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	for _, probe := range a.probes {
		if err := probe(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newObjectStorage returns a router whose primary backend follows STORAGE_TYPE.
// The other backend stays reachable for files saved before a switch.
func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	local, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init local storage: %w", err)
	}
	if cfg.S3BucketName == "" {
		return storage.NewRouter(local), nil
	}

	bucket, err := s3.New(s3.Config{
		Bucket:          cfg.S3BucketName,
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		UseSSL:          cfg.S3UseSSL,
	})
	if err != nil {
		if cfg.StorageType != s3.BackendName {
			slog.Warn("s3_storage_unavailable", "bucket", cfg.S3BucketName, "error", err)
			return storage.NewRouter(local), nil
		}
		return nil, fmt.Errorf("init s3 storage: %w", err)
	}
	if cfg.StorageType != s3.BackendName {
		return storage.NewRouter(local, bucket), nil
	}
	if cfg.S3CreateBucket {
		if err := bucket.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure s3 bucket: %w", err)
		}
	}
	slog.Info("object_storage_ready", "backend", s3.BackendName, "bucket", cfg.S3BucketName)
	return storage.NewRouter(bucket, local), nil
}

func newRevocationStore(ctx context.Context, cfg config.Config) (ports.RevocationStore, error) {
	if cfg.RedisURL == "" {
		return session.NoopStore{}, nil
	}
	store, err := session.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("init token revocation store: %w", err)
	}
	return store, nil
}

func newQueue(cfg config.Config, opts Options) (ports.MessageQueue, error) {
	if !cfg.QueueEnabled() {
		return noop.New(), nil
	}
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: opts.executor(resilience.QueueConfig()),
		OnDelivery:         opts.DeliveryObserver,
		DrainTimeout:       opts.DrainTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}
