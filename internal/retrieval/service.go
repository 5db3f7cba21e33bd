package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyQuestion is returned before any downstream call when the question
// is missing or blank.
var ErrEmptyQuestion = errors.New("question must not be empty")

// notFoundSentence is the exact wording the model is instructed to emit when
// the retrieved context cannot answer the question.
const notFoundSentence = "I cannot find an answer to this question in the available documents."

const promptTemplate = `Based on the following context, answer the question. If the answer cannot be found in the context, say "%s"

Context:
%s

Question: %s

Answer:`

// SearchResult is one retrieved chunk with its cosine-similarity certainty.
type SearchResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Position  int     `json:"position"`
	Certainty float32 `json:"certainty"`
}

// Answer pairs the generated text with the ordered, deduplicated list of
// source filenames that contributed context.
type Answer struct {
	Text      string   `json:"answer"`
	Citations []string `json:"citations"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	gen      Generator
	topK     int
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, g Generator, topK int, l *QueryLogger) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{embedder: e, store: s, gen: g, topK: topK, logger: l}
}

// Answer runs the full question pipeline: embed the question, retrieve the
// top-k chunks, assemble context and citations, then call the completion
// model once. No stage retries; the first error wins.
func (s *Service) Answer(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	start := time.Now()

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := s.store.Search(ctx, vec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	prompt := BuildPrompt(question, Context(results))
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if s.logger != nil {
		s.logger.Log(ctx, QueryLogEntry{
			Question:   question,
			NumResults: len(results),
			Duration:   time.Since(start),
		})
	}

	return &Answer{Text: text, Citations: Citations(results)}, nil
}

// Context joins retrieved chunk texts with a single space, preserving the
// similarity-descending order the index returned.
func Context(results []SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, " ")
}

// Citations lists each source filename once, in order of first appearance
// among the retrieved chunks. Never sorted.
func Citations(results []SearchResult) []string {
	citations := []string{}
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Source] {
			continue
		}
		seen[r.Source] = true
		citations = append(citations, r.Source)
	}
	return citations
}

// BuildPrompt fills the fixed answer template.
func BuildPrompt(question, context string) string {
	return fmt.Sprintf(promptTemplate, notFoundSentence, context, question)
}
