package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/paperqa/internal/api"
	"github.com/dgallion1/paperqa/internal/config"
	"github.com/dgallion1/paperqa/internal/ingest"
	"github.com/dgallion1/paperqa/internal/llm"
	"github.com/dgallion1/paperqa/internal/notes"
	"github.com/dgallion1/paperqa/internal/qa"
	"github.com/dgallion1/paperqa/internal/store"
	"github.com/dgallion1/paperqa/internal/unstructured"
	"github.com/dgallion1/paperqa/internal/vector"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	repo, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	embedder := vector.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	index := vector.NewIndex(vector.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	}, embedder)
	if err := index.Init(ctx); err != nil {
		log.Error("failed to initialize vector index", "error", err)
		os.Exit(1)
	}

	// Initialize clients.
	model := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	extractor := unstructured.NewClient(cfg.UnstructuredURL, cfg.UnstructuredAPIKey, cfg.StagingDir)
	fetcher := ingest.NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxPDFBytes)

	// Initialize pipelines.
	pipeline := ingest.NewPipeline(fetcher, extractor, notes.NewSynthesizer(model), repo, index, log)
	engine := qa.NewEngine(repo, index, model, cfg.RetrievalTopK, log)

	// Initialize HTTP server.
	srv := api.NewServer(pipeline, engine, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		extractor.Close()
	}()

	log.Info("starting paperqa", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
