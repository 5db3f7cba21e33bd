package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"onboard/internal/extract"
	"onboard/internal/text"
	"onboard/internal/vector"
)

// Ingestion states. A document moves forward through these in order and
// lands on done, or jumps to failed from any of them.
const (
	StatusReceived  = "received"
	StatusExtracted = "extracted"
	StatusChunked   = "chunked"
	StatusStored    = "stored"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	StoredPath string    `json:"-"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	UpdateStatus(ctx context.Context, id, status string) error
	MarkDone(ctx context.Context, id string, chunkCount int) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	Count(ctx context.Context) (int, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	StoreChunk(ctx context.Context, rec vector.Record) error
}

type Service struct {
	repo     Repository
	embedder Embedder
	store    VectorStore
	splitter *text.Splitter
}

func NewService(repo Repository, e Embedder, s VectorStore, splitter *text.Splitter) *Service {
	return &Service{repo: repo, embedder: e, store: s, splitter: splitter}
}

// Ingest runs one document through extract, chunk, embed and store. Chunks
// are embedded and inserted one at a time; a mid-sequence failure marks the
// document failed and leaves the chunks stored so far in the index. Partial
// progress is deliberate and surfaced through the catalog, never hidden.
func (s *Service) Ingest(ctx context.Context, data []byte, filename, storedPath string) (*Document, error) {
	kind, ok := extract.KindFromFilename(filename)
	if !ok {
		// The handler rejects these before saving anything; this is the
		// second line of defense for non-HTTP callers.
		return nil, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, filename)
	}

	doc := &Document{
		Filename:   filename,
		StoredPath: storedPath,
		Status:     StatusReceived,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document record: %w", err)
	}

	plain, err := extract.Text(data, kind)
	if err != nil {
		return nil, s.fail(ctx, doc, err)
	}
	s.advance(ctx, doc, StatusExtracted)

	chunks := s.splitter.Split(plain)
	s.advance(ctx, doc, StatusChunked)

	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, s.fail(ctx, doc, fmt.Errorf("embed chunk %d: %w", i, err))
		}

		rec := vector.Record{
			Text:     chunk,
			Source:   filename,
			Position: i,
			Vector:   vec,
		}
		if err := s.store.StoreChunk(ctx, rec); err != nil {
			return nil, s.fail(ctx, doc, fmt.Errorf("store chunk %d: %w", i, err))
		}
	}
	s.advance(ctx, doc, StatusStored)

	if err := s.repo.MarkDone(ctx, doc.ID, len(chunks)); err != nil {
		slog.WarnContext(ctx, "failed to mark document done", "error", err, "document_id", doc.ID)
	}
	doc.Status = StatusDone
	doc.ChunkCount = len(chunks)

	slog.InfoContext(ctx, "document ingested", "filename", filename, "chunks", len(chunks))
	return doc, nil
}

// advance moves the catalog row forward. Status bookkeeping must not abort
// an otherwise healthy ingestion, so failures only log.
func (s *Service) advance(ctx context.Context, doc *Document, status string) {
	doc.Status = status
	if err := s.repo.UpdateStatus(ctx, doc.ID, status); err != nil {
		slog.WarnContext(ctx, "failed to update document status", "error", err, "document_id", doc.ID, "status", status)
	}
}

func (s *Service) fail(ctx context.Context, doc *Document, cause error) error {
	doc.Status = StatusFailed
	doc.Error = cause.Error()
	if err := s.repo.MarkFailed(ctx, doc.ID, cause.Error()); err != nil {
		slog.WarnContext(ctx, "failed to mark document failed", "error", err, "document_id", doc.ID)
	}
	return cause
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}
