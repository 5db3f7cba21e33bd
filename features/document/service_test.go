package document

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"onboard/internal/extract"
	"onboard/internal/text"
	"onboard/internal/vector"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, doc *Document) error {
	args := m.Called(ctx, doc)
	if args.Error(0) == nil {
		doc.ID = "doc-1"
	}
	return args.Error(0)
}

func (m *MockRepo) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepo) MarkDone(ctx context.Context, id string, chunkCount int) error {
	args := m.Called(ctx, id, chunkCount)
	return args.Error(0)
}

func (m *MockRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*Document, error) {
	args := m.Called(ctx, id)
	if doc := args.Get(0); doc != nil {
		return doc.(*Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepo) List(ctx context.Context) ([]Document, error) {
	args := m.Called(ctx)
	if docs := args.Get(0); docs != nil {
		return docs.([]Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if vec := args.Get(0); vec != nil {
		return vec.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) StoreChunk(ctx context.Context, rec vector.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// buildDocx assembles a minimal OOXML archive with one paragraph per entry.
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestService(repo *MockRepo, e *MockEmbedder, s *MockStore, chunkSize int) *Service {
	return NewService(repo, e, s, text.NewSplitter(chunkSize, 0))
}

func TestService_Ingest(t *testing.T) {
	t.Run("successful ingestion marks document done", func(t *testing.T) {
		repo := new(MockRepo)
		embedder := new(MockEmbedder)
		store := new(MockStore)
		svc := newTestService(repo, embedder, store, 1000)

		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.On("UpdateStatus", mock.Anything, "doc-1", mock.Anything).Return(nil)
		repo.On("MarkDone", mock.Anything, "doc-1", 1).Return(nil)
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)
		store.On("StoreChunk", mock.Anything, mock.MatchedBy(func(rec vector.Record) bool {
			return rec.Source == "handbook.docx" && rec.Position == 0
		})).Return(nil)

		data := buildDocx(t, "Employees accrue 20 vacation days per year.")
		doc, err := svc.Ingest(context.Background(), data, "handbook.docx", "/tmp/uploads/x_handbook.docx")

		require.NoError(t, err)
		assert.Equal(t, StatusDone, doc.Status)
		assert.Equal(t, 1, doc.ChunkCount)
		repo.AssertCalled(t, "UpdateStatus", mock.Anything, "doc-1", StatusExtracted)
		repo.AssertCalled(t, "UpdateStatus", mock.Anything, "doc-1", StatusChunked)
		repo.AssertCalled(t, "UpdateStatus", mock.Anything, "doc-1", StatusStored)
	})

	t.Run("unsupported extension rejected before any record is written", func(t *testing.T) {
		repo := new(MockRepo)
		embedder := new(MockEmbedder)
		store := new(MockStore)
		svc := newTestService(repo, embedder, store, 1000)

		_, err := svc.Ingest(context.Background(), []byte("plain text"), "notes.txt", "/tmp/notes.txt")

		require.Error(t, err)
		assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("extraction failure marks document failed", func(t *testing.T) {
		repo := new(MockRepo)
		embedder := new(MockEmbedder)
		store := new(MockStore)
		svc := newTestService(repo, embedder, store, 1000)

		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkFailed", mock.Anything, "doc-1", mock.Anything).Return(nil)

		_, err := svc.Ingest(context.Background(), []byte("not a zip archive"), "broken.docx", "/tmp/broken.docx")

		require.Error(t, err)
		assert.ErrorIs(t, err, extract.ErrExtraction)
		repo.AssertCalled(t, "MarkFailed", mock.Anything, "doc-1", mock.Anything)
		embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	})

	t.Run("embedding failure marks document failed", func(t *testing.T) {
		repo := new(MockRepo)
		embedder := new(MockEmbedder)
		store := new(MockStore)
		svc := newTestService(repo, embedder, store, 1000)

		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.On("UpdateStatus", mock.Anything, "doc-1", mock.Anything).Return(nil)
		repo.On("MarkFailed", mock.Anything, "doc-1", mock.Anything).Return(nil)
		embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

		data := buildDocx(t, "Some onboarding policy text.")
		_, err := svc.Ingest(context.Background(), data, "policy.docx", "/tmp/policy.docx")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embed chunk 0")
		repo.AssertCalled(t, "MarkFailed", mock.Anything, "doc-1", mock.Anything)
		store.AssertNotCalled(t, "StoreChunk", mock.Anything, mock.Anything)
	})

	t.Run("mid-sequence store failure keeps earlier chunks and marks failed", func(t *testing.T) {
		repo := new(MockRepo)
		embedder := new(MockEmbedder)
		store := new(MockStore)
		// Small chunk size forces the paragraphs into separate chunks.
		svc := newTestService(repo, embedder, store, 60)

		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.On("UpdateStatus", mock.Anything, "doc-1", mock.Anything).Return(nil)
		repo.On("MarkFailed", mock.Anything, "doc-1", mock.Anything).Return(nil)
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
		store.On("StoreChunk", mock.Anything, mock.MatchedBy(func(rec vector.Record) bool {
			return rec.Position == 0
		})).Return(nil)
		store.On("StoreChunk", mock.Anything, mock.MatchedBy(func(rec vector.Record) bool {
			return rec.Position == 1
		})).Return(errors.New("connection refused"))

		data := buildDocx(t,
			"First paragraph about the company travel policy rules.",
			"Second paragraph about submitting expense reports on time.",
		)
		_, err := svc.Ingest(context.Background(), data, "travel.docx", "/tmp/travel.docx")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store chunk 1")
		store.AssertNumberOfCalls(t, "StoreChunk", 2)
		repo.AssertCalled(t, "MarkFailed", mock.Anything, "doc-1", mock.Anything)
		repo.AssertNotCalled(t, "MarkDone", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("status bookkeeping failure does not abort ingestion", func(t *testing.T) {
		repo := new(MockRepo)
		embedder := new(MockEmbedder)
		store := new(MockStore)
		svc := newTestService(repo, embedder, store, 1000)

		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.On("UpdateStatus", mock.Anything, "doc-1", mock.Anything).Return(errors.New("db hiccup"))
		repo.On("MarkDone", mock.Anything, "doc-1", 1).Return(nil)
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
		store.On("StoreChunk", mock.Anything, mock.Anything).Return(nil)

		data := buildDocx(t, "Short policy snippet.")
		doc, err := svc.Ingest(context.Background(), data, "snippet.docx", "/tmp/snippet.docx")

		require.NoError(t, err)
		assert.Equal(t, StatusDone, doc.Status)
	})
}
