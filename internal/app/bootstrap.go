package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"onboard/internal/adapter/gemini"
	wstore "onboard/internal/adapter/weaviate"
	"onboard/internal/config"
	"onboard/internal/vector"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/generative-ai-go/genai"
	_ "github.com/lib/pq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

type Dependencies struct {
	DB        *sql.DB
	Store     *wstore.Store
	Embedder  *gemini.Embedder
	Generator *gemini.Generator

	genaiClient *genai.Client
}

func (d *Dependencies) Close() {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			slog.Warn("failed to close db", "error", err)
		}
	}
	if d.genaiClient != nil {
		if err := d.genaiClient.Close(); err != nil {
			slog.Warn("failed to close genai client", "error", err)
		}
	}
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Retry loop
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	// Weaviate
	wCfg := weaviate.Config{Host: cfg.WeaviateAddr(), Scheme: cfg.WeaviateScheme}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}

	schemaClient := vector.NewWeaviateClientAdapter(wClient)
	if err := EnsureSchemaWithRetry(ctx, schemaClient, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}

	store := wstore.NewStore(wClient, cfg.EmbeddingDimension)

	// Refuse to start against an index populated with vectors of a
	// different dimension. Searching such an index returns garbage, not
	// errors, so this is checked up front.
	if err := vector.VerifyDimension(ctx, store, cfg.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("vector index dimension check: %w", err)
	}

	// Gemini
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini client error: %w", err)
	}

	return &Dependencies{
		DB:          db,
		Store:       store,
		Embedder:    gemini.NewEmbedder(client, cfg.EmbeddingModel),
		Generator:   gemini.NewGenerator(client, cfg.GenerationModel),
		genaiClient: client,
	}, nil
}

// EnsureSchemaWithRetry keeps trying until the index accepts the class
// definition; the index usually lags the rest of the stack on cold start.
func EnsureSchemaWithRetry(ctx context.Context, client vector.SchemaClient, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = vector.EnsureSchema(ctx, client); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
