package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"onboard/internal/extract"
	"onboard/internal/middleware"
)

type Handler struct {
	service   *Service
	uploadDir string
	maxBytes  int64
}

func NewHandler(service *Service, uploadDir string, maxUploadMB int64) *Handler {
	return &Handler{
		service:   service,
		uploadDir: uploadDir,
		maxBytes:  maxUploadMB << 20,
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		h.writeError(r.Context(), w, "BAD_REQUEST", "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(r.Context(), w, "BAD_REQUEST", "Unable to retrieve file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Unsupported formats are rejected before anything touches disk or the
	// vector index.
	if _, ok := extract.KindFromFilename(header.Filename); !ok {
		h.writeError(r.Context(), w, "BAD_REQUEST", "Only PDF and DOCX files are allowed", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to read file", http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		slog.Error("failed to create upload directory", "error", err, "path", filepath.Clean(h.uploadDir))
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to create upload directory", http.StatusInternalServerError)
		return
	}

	storedName := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(header.Filename))
	storedPath := filepath.Clean(filepath.Join(h.uploadDir, storedName))
	if err := os.WriteFile(storedPath, data, 0o640); err != nil {
		slog.Error("failed to save file", "error", err, "path", storedPath)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to save file", http.StatusInternalServerError)
		return
	}

	doc, err := h.service.Ingest(r.Context(), data, header.Filename, storedPath)
	if err != nil {
		if removeErr := os.Remove(storedPath); removeErr != nil {
			slog.Warn("failed to clean up uploaded file", "error", removeErr, "path", storedPath)
		}
		slog.Error("ingestion failed", "error", err, "filename", header.Filename)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to process document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": doc}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	// Ensure we return [] instead of null for empty list
	if docs == nil {
		docs = []Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": docs,
		"meta": map[string]int{"count": len(docs)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": doc}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
