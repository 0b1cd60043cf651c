// Package vector defines the records kept in the vector index and the
// Weaviate schema that holds them.
package vector

import "fmt"

// ClassName is the Weaviate class holding transcript chunk embeddings.
const ClassName = "TranscriptChunk"

type Metadata struct {
	Content   string  `json:"content"`
	PodcastID int64   `json:"podcastId"`
	EpisodeID int64   `json:"episodeId"`
	SpeakerID *int64  `json:"speakerId,omitempty"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Record is one embedding to upsert. ID must be a UUID; it is the chunk's
// embedding id in the relational store.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is a similarity hit. Score is in [0,1], higher is closer.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// Namespace names the isolation boundary for one podcast's embeddings.
func Namespace(podcastID int64) string {
	return fmt.Sprintf("podcast-%d", podcastID)
}
