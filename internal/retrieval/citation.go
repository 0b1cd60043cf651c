package retrieval

import (
	"fmt"
	"strconv"
)

const UnknownSpeakerName = "Unknown Speaker"

// SearchResult is an enriched, ranked transcript passage.
type SearchResult struct {
	ID           string  `json:"id"`
	ChunkID      int64   `json:"chunkId,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
	Source       Source  `json:"source"`
	EpisodeID    int64   `json:"episodeId"`
	PodcastID    int64   `json:"podcastId"`
	SpeakerID    *int64  `json:"speakerId,omitempty"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime"`
	EpisodeTitle string  `json:"episodeTitle"`
	EpisodeURL   string  `json:"episodeUrl,omitempty"`
	PodcastName  string  `json:"podcastName"`
	SpeakerName  string  `json:"speakerName,omitempty"`
}

type Citation struct {
	ID           string  `json:"id"`
	ChunkID      string  `json:"chunk_id"`
	EpisodeID    int64   `json:"episode_id"`
	PodcastID    int64   `json:"podcast_id"`
	SpeakerID    *int64  `json:"speaker_id,omitempty"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Content      string  `json:"content"`
	EpisodeTitle string  `json:"episode_title"`
	PodcastName  string  `json:"podcast_name"`
	SpeakerName  string  `json:"speaker_name"`
	URL          string  `json:"url"`
	AudioURL     string  `json:"audio_url"`
}

// AudioURL is the seek link for a passage.
func AudioURL(episodeID int64, startTime float64) string {
	return fmt.Sprintf("/api/audio/%d?t=%s", episodeID, formatSeconds(startTime))
}

// FormatCitations maps results one-to-one, preserving order.
func FormatCitations(results []SearchResult) []Citation {
	citations := make([]Citation, len(results))
	for i, r := range results {
		chunkID := r.ID
		if r.ChunkID != 0 {
			chunkID = strconv.FormatInt(r.ChunkID, 10)
		}
		speaker := r.SpeakerName
		if speaker == "" {
			speaker = UnknownSpeakerName
		}
		citations[i] = Citation{
			ID:           fmt.Sprintf("citation-%d", i),
			ChunkID:      chunkID,
			EpisodeID:    r.EpisodeID,
			PodcastID:    r.PodcastID,
			SpeakerID:    r.SpeakerID,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			Content:      r.Content,
			EpisodeTitle: r.EpisodeTitle,
			PodcastName:  r.PodcastName,
			SpeakerName:  speaker,
			URL:          r.EpisodeURL,
			AudioURL:     AudioURL(r.EpisodeID, r.StartTime),
		}
	}
	return citations
}
