package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRequest = errors.New("invalid transcript request")

// IngestRequest is both the upload body and the NSQ payload. Either SRT and
// diarized content or pre-aligned segments must be present.
type IngestRequest struct {
	EpisodeID       int64           `json:"episodeId"`
	SRTContent      string          `json:"srtContent,omitempty"`
	DiarizedContent string          `json:"diarizedContent,omitempty"`
	Segments        json.RawMessage `json:"segments,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

func (r IngestRequest) Validate() error {
	if r.EpisodeID <= 0 {
		return fmt.Errorf("%w: episodeId is required", ErrInvalidRequest)
	}
	if r.hasSRT() || r.hasSegments() {
		return nil
	}
	return fmt.Errorf("%w: provide either srtContent and diarizedContent, or segments", ErrInvalidRequest)
}

func (r IngestRequest) hasSRT() bool {
	return strings.TrimSpace(r.SRTContent) != "" && strings.TrimSpace(r.DiarizedContent) != ""
}

func (r IngestRequest) hasSegments() bool {
	s := strings.TrimSpace(string(r.Segments))
	return s != "" && s != "null"
}

// IngestResult reports how many chunks were built and how many reached the
// vector index. Success means at least one chunk is searchable.
type IngestResult struct {
	ChunkCount  int  `json:"chunkCount"`
	StoredCount int  `json:"storedCount"`
	Success     bool `json:"success"`
}
