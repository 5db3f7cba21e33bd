package qa

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"onboard/internal/middleware"
	"onboard/internal/retrieval"
)

type Answerer interface {
	Answer(ctx context.Context, question string) (*retrieval.Answer, error)
}

type Handler struct {
	answerer Answerer
}

func NewHandler(answerer Answerer) *Handler {
	return &Handler{answerer: answerer}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid request body", http.StatusBadRequest)
		return
	}

	answer, err := h.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyQuestion) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "Question is required", http.StatusBadRequest)
			return
		}
		slog.Error("question answering failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to answer question", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(answer); err != nil {
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
