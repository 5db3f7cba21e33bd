package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmbedding wraps any failure of the embedding model call.
var ErrEmbedding = errors.New("embedding failed")

// NewClient builds the shared genai client. One client is constructed at
// bootstrap and injected into both the embedder and the generator so the
// ingestion and query paths are guaranteed to share model configuration.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*genai.Client, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	return genai.NewClient(ctx, opts...)
}

type Embedder struct {
	client *genai.Client
	model  string
}

func NewEmbedder(client *genai.Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding received", ErrEmbedding)
	}
	return res.Embedding.Values, nil
}
