package app

import (
	"context"

	"podcastqa/apps/backend/internal/vector"
)

// MockVectorStore is an in-memory VectorStore for wiring tests.
type MockVectorStore struct {
	EnsureSchemaErr error
	Count           int
}

func (m *MockVectorStore) EnsureSchema(ctx context.Context) error {
	return m.EnsureSchemaErr
}

func (m *MockVectorStore) Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error) {
	return len(records), nil
}

func (m *MockVectorStore) Query(ctx context.Context, vec []float32, topK int, podcastIDs []int64) ([]vector.Match, error) {
	return nil, nil
}

func (m *MockVectorStore) DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error {
	return nil
}

func (m *MockVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	return nil
}

func (m *MockVectorStore) CountChunks(ctx context.Context) (int, error) {
	return m.Count, nil
}

type NopPublisher struct {
	Topics []string
}

func (p *NopPublisher) Publish(topic string, body []byte) error {
	p.Topics = append(p.Topics, topic)
	return nil
}
