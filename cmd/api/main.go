package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/api"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/cache"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/config"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/database"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/embedding"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/insight"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/qa"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/queue"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/storage"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/vectorstore"
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

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable at startup", "error", err)
	}
	defer rdb.Close()

	store, err := storage.NewMinioStorage(cfg.Storage)
	if err != nil {
		slog.Error("object storage init failed", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		slog.Error("ensure bucket failed", "error", err)
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
	queueClient := queue.NewClient(cfg.Redis, cfg.Pipeline.ProcessTimeout)
	defer queueClient.Close()

	retriever := search.NewRetriever(index, docSvc)
	if cfg.Search.EnableSemantic {
		embedSvc := embedding.NewService(gateway, cfg.LLM.EmbeddingModel)
		retriever = retriever.WithSemantic(embedSvc, vectorstore.NewPgVectorStore(db))
	}

	history := qa.NewHistory(db)
	synthesizer := qa.NewSynthesizer(gateway, retriever, history, cfg.LLM.AnswerModel, cfg.Pipeline.RetrievalTopK)
	insights := insight.NewService(gateway, docSvc, cache.NewCache(rdb), cfg.LLM.InsightModel, logger)

	handler := api.NewRouter(api.Deps{
		DB:          db,
		Redis:       rdb,
		Config:      cfg,
		Documents:   docSvc,
		QueueClient: queueClient,
		Retriever:   retriever,
		Index:       index,
		Synthesizer: synthesizer,
		History:     history,
		Insights:    insights,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
