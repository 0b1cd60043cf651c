// Package stats reports catalog and index sizes.
package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/middleware"
)

type CatalogCounter interface {
	Counts(ctx context.Context) (catalog.Counts, error)
}

type JobRepo interface {
	Count(ctx context.Context) (int, error)
}

type VectorStore interface {
	CountChunks(ctx context.Context) (int, error)
}

type Handler struct {
	catalog     CatalogCounter
	jobRepo     JobRepo
	vectorStore VectorStore
}

func NewHandler(c CatalogCounter, j JobRepo, v VectorStore) *Handler {
	return &Handler{catalog: c, jobRepo: j, vectorStore: v}
}

// StatsResponse counts. IndexedChunks is null when the vector store could
// not be reached; Chunks is the relational count.
type StatsResponse struct {
	Podcasts      int  `json:"podcasts"`
	Episodes      int  `json:"episodes"`
	Speakers      int  `json:"speakers"`
	Chunks        int  `json:"chunks"`
	IndexedChunks *int `json:"indexed_chunks"`
	FailedJobs    int  `json:"failed_jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.catalog.Counts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count catalog", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count catalog", err.Error(), http.StatusInternalServerError)
		return
	}

	jCount, err := h.jobRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count jobs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count jobs", err.Error(), http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Podcasts:   counts.Podcasts,
		Episodes:   counts.Episodes,
		Speakers:   counts.Speakers,
		Chunks:     counts.Chunks,
		FailedJobs: jCount,
	}

	if n, err := h.vectorStore.CountChunks(ctx); err != nil {
		slog.WarnContext(ctx, "failed to count indexed chunks", "error", err)
	} else {
		resp.IndexedChunks = &n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message, details string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
			"details": details,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
