package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"podcastqa/apps/backend/internal/llm"
	"podcastqa/apps/backend/internal/middleware"
	"podcastqa/apps/backend/internal/retrieval"
	"podcastqa/apps/backend/internal/settings"
)

type Retriever interface {
	Search(ctx context.Context, query string, podcastIDs []int64, limit int) ([]retrieval.SearchResult, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, results []retrieval.SearchResult, history []llm.Message) (string, error)
}

type Request struct {
	Query               string        `json:"query"`
	PodcastIDs          []int64       `json:"podcastIds"`
	ConversationHistory []llm.Message `json:"conversationHistory"`
	Limit               int           `json:"limit"`
}

type Response struct {
	Answer    string               `json:"answer"`
	Citations []retrieval.Citation `json:"citations"`
}

type Handler struct {
	retriever Retriever
	answerer  Answerer
}

func NewHandler(r Retriever, a Answerer) *Handler {
	return &Handler{retriever: r, answerer: a}
}

// Handle serves POST /query.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid JSON", nil, http.StatusBadRequest)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Query is required", nil, http.StatusBadRequest)
		return
	}
	if req.Limit < 0 || req.Limit > settings.MaxSearchLimit {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Limit out of range", map[string]int{"max": settings.MaxSearchLimit}, http.StatusBadRequest)
		return
	}

	results, err := h.retriever.Search(r.Context(), req.Query, req.PodcastIDs, req.Limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "query search failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to query transcripts", err.Error(), http.StatusInternalServerError)
		return
	}

	if len(results) == 0 {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": Response{Answer: NoResultsAnswer, Citations: []retrieval.Citation{}},
		})
		return
	}

	citations := retrieval.FormatCitations(results)
	resp := Response{Citations: citations}

	answer, err := h.answerer.Answer(r.Context(), req.Query, results, req.ConversationHistory)
	if err != nil {
		slog.WarnContext(r.Context(), "answer synthesis failed, returning citations only", "error", err, "citations", len(citations))
		resp.Answer = FailureAnswer
	} else {
		resp.Answer = answer
		resp.Citations = SelectCitations(answer, citations)
	}

	slog.InfoContext(r.Context(), "query answered", "results", len(results), "citations", len(resp.Citations))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": resp})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, details interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errBody["details"] = details
	}
	resp := map[string]interface{}{
		"error":         errBody,
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
