// Package catalog is the relational system of record: podcasts, episodes,
// speakers and the transcript chunks used for keyword search.
package catalog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Podcast struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Episode struct {
	ID          int64      `json:"id"`
	PodcastID   int64      `json:"podcast_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AudioURL    string     `json:"audio_url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Speaker struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StoredChunk is a persisted chunk. EmbeddingID keys the same chunk in the
// vector store.
type StoredChunk struct {
	ID          int64
	EmbeddingID string
	EpisodeID   int64
	SpeakerID   *int64
	Kind        string
	Content     string
	StartTime   float64
	EndTime     float64
}

// KeywordHit is a chunk matched by substring search, joined with its podcast.
type KeywordHit struct {
	ChunkID     int64
	EmbeddingID string
	EpisodeID   int64
	PodcastID   int64
	SpeakerID   *int64
	Content     string
	StartTime   float64
	EndTime     float64
}

type Counts struct {
	Podcasts int `json:"podcasts"`
	Episodes int `json:"episodes"`
	Speakers int `json:"speakers"`
	Chunks   int `json:"chunks"`
}
