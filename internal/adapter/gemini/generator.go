package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// ErrCompletion wraps any failure of the text generation call.
var ErrCompletion = errors.New("completion service failed")

// Generator turns a single text prompt into a single text completion.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(client *genai.Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating completion", "model", g.model, "prompt_length", len(prompt))

	gm := g.client.GenerativeModel(g.model)
	res, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	var b strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty completion received", ErrCompletion)
	}
	return b.String(), nil
}
