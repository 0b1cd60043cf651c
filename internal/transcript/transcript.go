// Package transcript turns the two raw inputs of an episode, a time-coded
// subtitle stream and a speaker-diarized text stream, into one ordered
// sequence of speaker-attributed, timestamped segments.
package transcript

import (
	"errors"
	"strings"
)

const UnknownSpeaker = "Unknown"

var ErrInvalidFormat = errors.New("invalid transcript format")

// Segment is one aligned span of speech. Times are seconds from episode start.
type Segment struct {
	Content   string  `json:"content"`
	Speaker   string  `json:"speaker"`
	SpeakerID *int64  `json:"speakerId,omitempty"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Valid reports whether the segment satisfies end > start >= 0 with non-empty content.
func (s Segment) Valid() bool {
	return strings.TrimSpace(s.Content) != "" && s.StartTime >= 0 && s.EndTime > s.StartTime
}

func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

type Metadata struct {
	PodcastID   int64  `json:"podcastId"`
	EpisodeID   int64  `json:"episodeId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Transcript keeps segments in source order; they are never re-sorted.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Metadata Metadata  `json:"metadata"`
}
