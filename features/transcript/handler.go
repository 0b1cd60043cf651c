// Package transcript exposes transcript upload, either processed inline or
// queued for the ingest worker.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/config"
	"podcastqa/apps/backend/internal/middleware"
	parser "podcastqa/apps/backend/internal/transcript"
	"podcastqa/apps/backend/internal/worker"
)

const maxUploadBytes = 50 << 20

var ErrPublishTimeout = errors.New("timeout waiting for NSQ publish")

type Ingestor interface {
	Ingest(ctx context.Context, req worker.IngestRequest) (worker.IngestResult, error)
}

type EpisodeGetter interface {
	GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Handler struct {
	ingestor       Ingestor
	episodes       EpisodeGetter
	pub            EventPublisher
	publishTimeout time.Duration
}

func NewHandler(i Ingestor, episodes EpisodeGetter, pub EventPublisher) *Handler {
	return &Handler{ingestor: i, episodes: episodes, pub: pub, publishTimeout: 5 * time.Second}
}

func (h *Handler) WithPublishTimeout(d time.Duration) *Handler {
	h.publishTimeout = d
	return h
}

type uploadResponse struct {
	Message string `json:"message"`
	worker.IngestResult
}

// Upload handles POST /transcripts and processes the transcript inline.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.ingestor.Ingest(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrInvalidRequest), errors.Is(err, parser.ErrInvalidFormat):
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), nil, http.StatusBadRequest)
		case errors.Is(err, catalog.ErrNotFound):
			h.writeError(r.Context(), w, "NOT_FOUND", "Episode not found", map[string]int64{"episodeId": req.EpisodeID}, http.StatusNotFound)
		default:
			slog.ErrorContext(r.Context(), "transcript processing failed", "episode_id", req.EpisodeID, "error", err)
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to process transcript", nil, http.StatusInternalServerError)
		}
		return
	}

	msg := "Transcript processed successfully"
	if !res.Success {
		msg = "Transcript processed but no chunks were indexed"
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": uploadResponse{Message: msg, IngestResult: res}})
}

// Enqueue handles POST /transcripts/queue. The request is validated and the
// episode checked before it is published; processing happens in the worker.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), nil, http.StatusBadRequest)
		return
	}
	if _, err := h.episodes.GetEpisode(r.Context(), req.EpisodeID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Episode not found", map[string]int64{"episodeId": req.EpisodeID}, http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "episode lookup failed", "episode_id", req.EpisodeID, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", nil, http.StatusInternalServerError)
		return
	}

	correlationID := middleware.GetCorrelationID(r.Context())
	req.CorrelationID = correlationID
	body, err := json.Marshal(req)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), nil, http.StatusInternalServerError)
		return
	}

	if err := h.publish(r.Context(), body); err != nil {
		slog.ErrorContext(r.Context(), "failed to queue transcript", "episode_id", req.EpisodeID, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrPublishTimeout) {
			status = http.StatusServiceUnavailable
		}
		h.writeError(r.Context(), w, "QUEUE_ERROR", "Failed to queue transcript", nil, status)
		return
	}

	slog.InfoContext(r.Context(), "transcript queued", "episode_id", req.EpisodeID, "bytes", len(body))
	h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"data": map[string]interface{}{
			"episodeId":     req.EpisodeID,
			"status":        "queued",
			"correlationId": correlationID,
		},
	})
}

func (h *Handler) publish(ctx context.Context, body []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- h.pub.Publish(config.TopicTranscriptIngest, body)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.publishTimeout):
		return ErrPublishTimeout
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (worker.IngestRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var req worker.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(r.Context(), w, "BAD_REQUEST", "Transcript too large", nil, http.StatusRequestEntityTooLarge)
			return req, false
		}
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid JSON", nil, http.StatusBadRequest)
		return req, false
	}
	return req, true
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
