// Package audio resolves citation seek links to the episode's media URL.
package audio

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/middleware"
)

type EpisodeGetter interface {
	GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error)
}

type Handler struct {
	episodes EpisodeGetter
}

func NewHandler(episodes EpisodeGetter) *Handler {
	return &Handler{episodes: episodes}
}

// Seek handles GET /api/audio/{id}?t=seconds by redirecting to the episode
// audio with a media fragment. No audio bytes are served.
func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid episode id", http.StatusBadRequest)
		return
	}

	var offset string
	if t := r.URL.Query().Get("t"); t != "" {
		secs, err := strconv.ParseFloat(t, 64)
		if err != nil || secs < 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid time offset", http.StatusBadRequest)
			return
		}
		offset = strconv.FormatFloat(secs, 'f', -1, 64)
	}

	ep, err := h.episodes.GetEpisode(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Episode not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "episode lookup failed", "episode_id", id, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if ep.AudioURL == "" {
		h.writeError(r.Context(), w, "NOT_FOUND", "Episode has no audio", http.StatusNotFound)
		return
	}

	target := ep.AudioURL
	if offset != "" {
		target += "#t=" + offset
	}
	http.Redirect(w, r, target, http.StatusFound)
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
