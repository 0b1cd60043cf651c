package worker

import (
	"context"

	"podcastqa/apps/backend/features/job"
	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/degrade"
	"podcastqa/apps/backend/internal/vector"
)

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) []degrade.Result[[]float32]
}

type VectorWriter interface {
	Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error)
	DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error
}

// Catalog is the relational side of ingestion.
type Catalog interface {
	GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error)
	ListEpisodeSpeakers(ctx context.Context, episodeID int64) ([]catalog.Speaker, error)
	ReplaceEpisodeChunks(ctx context.Context, episodeID int64, chunks []catalog.StoredChunk) error
}

type FailedJobSaver interface {
	Save(ctx context.Context, j *job.Job) error
}
