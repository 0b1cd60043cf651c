package podcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreatePodcast(w http.ResponseWriter, r *http.Request) {
	var p catalog.Podcast
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.CreatePodcast(r.Context(), &p); err != nil {
		h.fail(w, r, err, "")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": p})
}

func (h *Handler) ListPodcasts(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.service.ListPodcasts(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if podcasts == nil {
		podcasts = []catalog.Podcast{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": podcasts,
		"meta": map[string]int{"count": len(podcasts)},
	})
}

func (h *Handler) GetPodcast(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPodcast(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Podcast not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": p})
}

func (h *Handler) DeletePodcast(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePodcast(r.Context(), id); err != nil {
		h.fail(w, r, err, "Podcast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	episodes, err := h.service.ListEpisodes(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Podcast not found")
		return
	}
	if episodes == nil {
		episodes = []catalog.Episode{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": episodes,
		"meta": map[string]int{"count": len(episodes)},
	})
}

// CreateEpisode handles POST /podcasts/{id}/episodes.
func (h *Handler) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	podcastID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in EpisodeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	in.PodcastID = podcastID

	detail, err := h.service.CreateEpisode(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "Podcast not found")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": detail})
}

func (h *Handler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetEpisode(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Episode not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": detail})
}

func (h *Handler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteEpisode(r.Context(), id); err != nil {
		h.fail(w, r, err, "Episode not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkSpeakers handles POST /episodes/{id}/speakers with {"speakers": [...]}.
func (h *Handler) LinkSpeakers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Speakers []string `json:"speakers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.service.GetEpisode(r.Context(), id); err != nil {
		h.fail(w, r, err, "Episode not found")
		return
	}
	if err := h.service.LinkSpeakers(r.Context(), id, req.Speakers); err != nil {
		h.fail(w, r, err, "")
		return
	}
	detail, err := h.service.GetEpisode(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Episode not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": detail})
}

func (h *Handler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.service.ListSpeakers(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if speakers == nil {
		speakers = []catalog.Speaker{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": speakers,
		"meta": map[string]int{"count": len(speakers)},
	})
}

func (h *Handler) CreateSpeaker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	s, err := h.service.CreateSpeaker(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": s})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// fail maps service errors to responses. notFoundMsg is used for
// catalog.ErrNotFound.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, ErrValidation):
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrNotFound):
		if notFoundMsg == "" {
			notFoundMsg = "Not found"
		}
		h.writeError(r.Context(), w, "NOT_FOUND", notFoundMsg, http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "catalog operation failed", "path", r.URL.Path, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
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
