package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"podcastqa/apps/backend/features/job"
	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/middleware"
	"podcastqa/apps/backend/internal/transcript"
)

const (
	HandlerTranscriptWorker = "transcript-worker"
	DefaultMaxAttempts      = 3
)

// TranscriptConsumer ingests transcripts published on the ingest topic.
// Permanent failures and exhausted retries are recorded as failed jobs.
type TranscriptConsumer struct {
	ingestor    *Ingestor
	jobs        FailedJobSaver
	timeout     time.Duration
	maxAttempts uint16
}

func NewTranscriptConsumer(i *Ingestor, jobs FailedJobSaver) *TranscriptConsumer {
	return &TranscriptConsumer{
		ingestor:    i,
		jobs:        jobs,
		timeout:     5 * time.Minute,
		maxAttempts: DefaultMaxAttempts,
	}
}

func (h *TranscriptConsumer) WithMaxAttempts(n uint16) *TranscriptConsumer {
	if n > 0 {
		h.maxAttempts = n
	}
	return h
}

func (h *TranscriptConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var req IngestRequest
	if err := json.Unmarshal(m.Body, &req); err != nil {
		// Poison pill: invalid JSON is never retried.
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	res, err := h.ingestor.Ingest(ctx, req)
	if err == nil {
		if !res.Success {
			slog.WarnContext(ctx, "transcript ingested without searchable chunks", "episode_id", req.EpisodeID, "chunks", res.ChunkCount)
		}
		return nil
	}

	if !permanent(err) && m.Attempts < h.maxAttempts {
		slog.WarnContext(ctx, "transcript ingestion failed, retrying", "episode_id", req.EpisodeID, "attempt", m.Attempts, "error", err)
		return err
	}

	slog.ErrorContext(ctx, "transcript ingestion failed", "episode_id", req.EpisodeID, "attempt", m.Attempts, "error", err)
	h.saveFailed(context.WithoutCancel(ctx), req.EpisodeID, m.Body, err)
	return nil
}

func (h *TranscriptConsumer) saveFailed(ctx context.Context, episodeID int64, body []byte, cause error) {
	if h.jobs == nil {
		return
	}
	j := &job.Job{
		EpisodeID: episodeID,
		Handler:   HandlerTranscriptWorker,
		Payload:   json.RawMessage(body),
		Error:     cause.Error(),
	}
	if err := h.jobs.Save(ctx, j); err != nil {
		slog.ErrorContext(ctx, "failed to save failed job", "episode_id", episodeID, "error", err)
	}
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, transcript.ErrInvalidFormat) ||
		errors.Is(err, catalog.ErrNotFound)
}
