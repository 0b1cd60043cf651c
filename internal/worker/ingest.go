package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/text"
	"podcastqa/apps/backend/internal/transcript"
	"podcastqa/apps/backend/internal/vector"
)

type Ingestor struct {
	catalog        Catalog
	embedder       BatchEmbedder
	vectors        VectorWriter
	fuzzyThreshold float64
}

func NewIngestor(c Catalog, e BatchEmbedder, v VectorWriter) *Ingestor {
	return &Ingestor{catalog: c, embedder: e, vectors: v}
}

// WithFuzzyThreshold overrides the speaker alignment threshold.
func (i *Ingestor) WithFuzzyThreshold(t float64) *Ingestor {
	i.fuzzyThreshold = t
	return i
}

// Ingest resolves the episode, builds a transcript from the request and
// processes it. Validation and parse failures wrap ErrInvalidRequest or
// transcript.ErrInvalidFormat; an unknown episode returns catalog.ErrNotFound.
func (i *Ingestor) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	if err := req.Validate(); err != nil {
		return IngestResult{}, err
	}

	ep, err := i.catalog.GetEpisode(ctx, req.EpisodeID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("episode %d: %w", req.EpisodeID, err)
	}

	t, err := i.buildTranscript(ctx, req, ep)
	if err != nil {
		return IngestResult{}, err
	}
	return i.ProcessTranscript(ctx, t)
}

func (i *Ingestor) buildTranscript(ctx context.Context, req IngestRequest, ep *catalog.Episode) (transcript.Transcript, error) {
	meta := transcript.Metadata{
		PodcastID:   ep.PodcastID,
		EpisodeID:   ep.ID,
		Title:       ep.Title,
		Description: ep.Description,
	}
	directory := i.speakerDirectory(ctx, ep.ID)

	if req.hasSRT() {
		tc := transcript.ParseSRT(req.SRTContent)
		sl := transcript.ParseDiarized(req.DiarizedContent)
		if tc.Dropped > 0 || sl.Skipped > 0 {
			slog.InfoContext(ctx, "skipped malformed transcript input", "episode_id", ep.ID, "srt_dropped", tc.Dropped, "diarized_skipped", sl.Skipped)
		}
		return transcript.Align(tc, sl, meta, transcript.AlignOptions{
			Threshold: i.fuzzyThreshold,
			Speakers:  directory,
		}), nil
	}

	segments, err := transcript.ParseSegmentsJSON(req.Segments)
	if err != nil {
		return transcript.Transcript{}, err
	}
	if n := transcript.ResolveSpeakers(segments, directory); n > 0 {
		slog.InfoContext(ctx, "dropped unknown speaker ids", "episode_id", ep.ID, "count", n)
	}
	return transcript.Transcript{Segments: segments, Metadata: meta}, nil
}

// speakerDirectory maps lower-cased names of the episode's speakers to ids.
// A lookup failure leaves every speaker unresolved.
func (i *Ingestor) speakerDirectory(ctx context.Context, episodeID int64) map[string]int64 {
	speakers, err := i.catalog.ListEpisodeSpeakers(ctx, episodeID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load episode speakers", "episode_id", episodeID, "error", err)
		return nil
	}
	dir := make(map[string]int64, len(speakers))
	for _, s := range speakers {
		dir[strings.ToLower(s.Name)] = s.ID
	}
	return dir
}

// ProcessTranscript chunks, embeds and stores a transcript, replacing any
// chunks previously stored for the episode. Chunks whose embedding failed
// are not stored. Relational rows are written first; the vector index is
// then rebuilt for the episode.
func (i *Ingestor) ProcessTranscript(ctx context.Context, t transcript.Transcript) (IngestResult, error) {
	episodeID := t.Metadata.EpisodeID
	chunks := text.BuildChunks(t)
	res := IngestResult{ChunkCount: len(chunks)}
	if len(chunks) == 0 {
		slog.WarnContext(ctx, "transcript produced no chunks", "episode_id", episodeID, "segments", len(t.Segments))
		return res, nil
	}

	texts := make([]string, len(chunks))
	for idx, c := range chunks {
		texts[idx] = c.Content
	}
	embeddings := i.embedder.EmbedBatch(ctx, texts)

	rows := make([]catalog.StoredChunk, 0, len(chunks))
	records := make([]vector.Record, 0, len(chunks))
	for idx, c := range chunks {
		e := embeddings[idx]
		if e.Degraded {
			slog.WarnContext(ctx, "skipping chunk without embedding", "episode_id", episodeID, "chunk", idx, "reason", e.Reason, "error", e.Err)
			continue
		}
		id := uuid.NewString()
		rows = append(rows, catalog.StoredChunk{
			EmbeddingID: id,
			EpisodeID:   episodeID,
			SpeakerID:   c.SpeakerID,
			Kind:        string(c.Kind),
			Content:     c.Content,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
		})
		records = append(records, vector.Record{
			ID:     id,
			Vector: e.Value,
			Metadata: vector.Metadata{
				Content:   c.Content,
				PodcastID: t.Metadata.PodcastID,
				EpisodeID: episodeID,
				SpeakerID: c.SpeakerID,
				StartTime: c.StartTime,
				EndTime:   c.EndTime,
			},
		})
	}

	if len(records) == 0 {
		slog.ErrorContext(ctx, "no chunk could be embedded, keeping existing chunks", "episode_id", episodeID, "chunks", len(chunks))
		return res, nil
	}

	if err := i.catalog.ReplaceEpisodeChunks(ctx, episodeID, rows); err != nil {
		return res, fmt.Errorf("store chunks: %w", err)
	}

	ns := vector.Namespace(t.Metadata.PodcastID)
	if err := i.vectors.DeleteByEpisode(ctx, ns, episodeID); err != nil {
		slog.WarnContext(ctx, "failed to clear previous episode vectors", "episode_id", episodeID, "namespace", ns, "error", err)
	}

	stored, err := i.vectors.Upsert(ctx, ns, records)
	if err != nil {
		slog.ErrorContext(ctx, "vector upsert failed", "episode_id", episodeID, "namespace", ns, "stored", stored, "error", err)
	}

	res.StoredCount = stored
	res.Success = stored > 0
	slog.InfoContext(ctx, "transcript processed", "episode_id", episodeID, "chunks", res.ChunkCount, "stored", res.StoredCount)
	return res, nil
}
