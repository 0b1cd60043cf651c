// Package job lists and retries transcript ingestions that failed in the
// background worker.
package job

import (
	"encoding/json"
	"time"
)

type Job struct {
	ID        string          `json:"id"`
	EpisodeID int64           `json:"episode_id"`
	Handler   string          `json:"handler"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}
