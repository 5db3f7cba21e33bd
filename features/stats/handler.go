package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"onboard/internal/middleware"
)

type DocumentRepo interface {
	Count(ctx context.Context) (int, error)
}

type VectorStore interface {
	CountChunks(ctx context.Context) (int, error)
}

type Handler struct {
	documentRepo DocumentRepo
	vectorStore  VectorStore
}

func NewHandler(d DocumentRepo, v VectorStore) *Handler {
	return &Handler{documentRepo: d, vectorStore: v}
}

type StatsResponse struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	dCount, err := h.documentRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count documents", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count documents", http.StatusInternalServerError)
		return
	}

	cCount, err := h.vectorStore.CountChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Documents: dCount,
		Chunks:    cCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
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
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
