package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/antonkudrin/coverage-assistant/internal/config"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
	"github.com/antonkudrin/coverage-assistant/internal/core/usecase"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/chunking"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/extractor"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/guardrail"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/llm/ollama"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/queue/nats"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/repository/postgres"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/resilience"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/storage/localfs"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/vector/memoryindex"
	"github.com/antonkudrin/coverage-assistant/internal/infrastructure/vector/qdrant"
	"github.com/antonkudrin/coverage-assistant/internal/observability/logging"
	"github.com/antonkudrin/coverage-assistant/internal/observability/metrics"
)

// App wires the shared object graph once; each binary picks the ports it
// needs. Close releases the queue connection and the database pool.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Docs  ports.DocumentReader

	Coverage ports.CoverageAnswerer
	Billing  ports.BillingLookup
	Device   ports.DeviceLookup
	Drug     ports.DrugLookup
	Chat     ports.ChatService
	Ingest   ports.DocumentIngestor
	Process  ports.DocumentProcessor

	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("coverage-assistant", cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	// QDRANT_URL=memory selects the in-process index: single-binary dev
	// setups, nothing persisted.
	var (
		index      ports.SemanticIndex
		rawIndexer ports.VectorIndexer
	)
	if cfg.QdrantURL == "" || cfg.QdrantURL == "memory" {
		mem := memoryindex.New(embedder)
		index, rawIndexer = mem, mem
	} else {
		qdrantClient := qdrant.NewClient(cfg.QdrantURL)
		index = qdrant.NewIndex(qdrantClient, embedder)
		rawIndexer = qdrant.NewIndexer(qdrantClient)
	}

	workerMetrics := metrics.NewWorkerMetrics("coverage-worker")
	indexer := &observedIndexer{
		next:    rawIndexer,
		metrics: workerMetrics,
		service: "coverage-worker",
	}

	guardMode, err := guardrail.ParseMode(cfg.GuardrailMode)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("parse guardrail mode: %w", err)
	}
	safety, err := guardrail.New(guardMode, generator)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init guardrail: %w", err)
	}

	rules, err := usecase.LoadRules()
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load rules: %w", err)
	}

	retriever := usecase.NewDualPathRetriever(store, index).Tune(
		time.Duration(cfg.StructuredTimeoutMS)*time.Millisecond,
		time.Duration(cfg.SemanticTimeoutMS)*time.Millisecond,
		cfg.SemanticTopK,
	)
	claims := usecase.NewKeywordClaimExtractor()

	billingTool := usecase.NewBillingTool(retriever, claims, rules)
	deviceTool := usecase.NewDeviceTool(retriever, claims, rules)
	drugTool := usecase.NewDrugTool(retriever, claims, rules)

	intentRouter := usecase.NewIntentRouter(rules)
	coverage := usecase.NewCoverageUseCase(intentRouter, billingTool, deviceTool, drugTool, rules)
	chat := usecase.NewChatUseCase(safety, coverage, generator)
	ingest := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	process := usecase.NewProcessDocumentUseCase(
		repo,
		extractor.NewComposite(storage),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		indexer,
		cfg.EmbedWorkers,
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Docs:  repo,

		Coverage: coverage,
		Billing:  billingTool,
		Device:   deviceTool,
		Drug:     drugTool,
		Chat:     chat,
		Ingest:   ingest,
		Process:  process,

		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
