package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/config"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/database"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/embedding"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/ingest"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/queue"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/queue/workers"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/storage"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/vectorstore"
	"github.com/Aryamaan9/ResearchPortalCodex/pkg/chunker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := storage.NewMinioStorage(cfg.Storage)
	if err != nil {
		slog.Error("object storage init failed", "error", err)
		os.Exit(1)
	}

	index, err := search.OpenBackend(cfg.Search.Backend, db, cfg.Search.IndexPath)
	if err != nil {
		slog.Error("open search backend failed", "error", err, "backend", cfg.Search.Backend)
		os.Exit(1)
	}
	defer index.Close()

	gateway := llm.NewGateway(cfg.LLM)
	docSvc := document.NewService(db, store)
	classifier := ingest.NewClassifier(gateway, cfg.LLM.ClassifyModel, cfg.Pipeline.ClassifyPreviewLen)

	processor := ingest.NewProcessor(docSvc, classifier, index, chunker.Options{
		ChunkSize:    cfg.Pipeline.ChunkSize,
		ChunkOverlap: cfg.Pipeline.ChunkOverlap,
	}, logger)
	if cfg.Search.EnableSemantic {
		embedSvc := embedding.NewService(gateway, cfg.LLM.EmbeddingModel)
		processor = processor.WithSemantic(embedSvc, vectorstore.NewPgVectorStore(db))
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	documentWorker := workers.NewDocumentWorker(processor)
	registry.Register(queue.TypeDocumentProcess, asynq.HandlerFunc(documentWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 4)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
