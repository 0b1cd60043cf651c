package retrieval

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"podcastqa/apps/backend/internal/degrade"
)

// QueryLogEntry is one line of query telemetry. Degraded maps a pipeline
// stage to the reason it fell back.
type QueryLogEntry struct {
	Timestamp      time.Time         `json:"timestamp"`
	Query          string            `json:"query"`
	RewrittenQuery string            `json:"rewritten_query,omitempty"`
	PodcastIDs     []int64           `json:"podcast_ids,omitempty"`
	Keywords       []string          `json:"keywords,omitempty"`
	Candidates     int               `json:"candidates"`
	Limit          int               `json:"limit"`
	NumResults     int               `json:"num_results"`
	Degraded       map[string]string `json:"degraded,omitempty"`
	Duration       time.Duration     `json:"duration_ns"`
	LatencyMs      int64             `json:"latency_ms"`
	CorrelationID  string            `json:"correlation_id"`
}

func (e *QueryLogEntry) degrade(stage string, reason degrade.Reason) {
	if e.Degraded == nil {
		e.Degraded = make(map[string]string)
	}
	e.Degraded[stage] = string(reason)
}

type QueryLogger struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{writer: w}
}

func NewFileQueryLogger(path string) (*QueryLogger, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	f, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, f)
	return NewQueryLogger(mw), nil
}

func (l *QueryLogger) Log(entry QueryLogEntry) {
	entry.Timestamp = time.Now()
	entry.LatencyMs = entry.Duration.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.writer).Encode(entry); err != nil {
		slog.Error("failed to write query log entry", "error", err)
	}
}
