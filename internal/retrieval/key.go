package retrieval

import (
	"fmt"
	"strings"
)

// ResultKey identifies one retrieval candidate across search modes. A key is
// either a vector id or, for rows without one, an (episode, start time) pair.
type ResultKey struct {
	vectorID  string
	episodeID int64
	startTime float64
}

func VectorKey(id string) ResultKey {
	return ResultKey{vectorID: strings.ToLower(strings.TrimSpace(id))}
}

func CompositeKey(episodeID int64, startTime float64) ResultKey {
	return ResultKey{episodeID: episodeID, startTime: startTime}
}

// IsVector reports whether the key was built from a vector id.
func (k ResultKey) IsVector() bool {
	return k.vectorID != ""
}

// String is the single normalised form used as the fusion map key.
func (k ResultKey) String() string {
	if k.vectorID != "" {
		return "v:" + k.vectorID
	}
	return fmt.Sprintf("c:%d:%.3f", k.episodeID, k.startTime)
}
