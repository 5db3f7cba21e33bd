package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"onboard/features/document"
	"onboard/features/qa"
	"onboard/features/stats"
	"onboard/internal/config"
	"onboard/internal/middleware"
	"onboard/internal/retrieval"
	"onboard/internal/text"
	"onboard/internal/vector"
)

// VectorStore is the full surface the application needs from the vector
// index. Narrower per-feature interfaces are satisfied by the same value.
type VectorStore interface {
	StoreChunk(ctx context.Context, rec vector.Record) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]retrieval.SearchResult, error)
	CountChunks(ctx context.Context) (int, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	port            int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	embedder Embedder,
	generator Generator,
	logger *slog.Logger,
) (*App, error) {

	// Feature: Document (ingestion pipeline + catalog)
	documentRepo := document.NewPostgresRepo(db)
	splitter := text.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	documentService := document.NewService(documentRepo, embedder, vecStore, splitter)
	documentHandler := document.NewHandler(documentService, cfg.UploadDir, cfg.MaxUploadSizeMB)

	// Feature: QA (retrieval pipeline)
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(embedder, vecStore, generator, cfg.SearchTopK, queryLogger)
	qaHandler := qa.NewHandler(retrievalService)

	// Feature: Stats
	statsHandler := stats.NewHandler(documentRepo, vecStore)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	requireAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.BasicAuth(cfg.AdminUsername, cfg.AdminPassword, next)
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /upload", middleware.CorrelationID(enableCORS(requireAuth(documentHandler.Upload))))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(documentHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(documentHandler.Get)))

	mux.Handle("POST /qa", middleware.CorrelationID(enableCORS(qaHandler.Ask)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:         mux,
		DocumentService: documentService,
		port:            cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
