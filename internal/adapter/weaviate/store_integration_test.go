package weaviate_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcastqa/apps/backend/internal/adapter/weaviate"
	"podcastqa/apps/backend/internal/testutils"
	"podcastqa/apps/backend/internal/vector"
)

func TestWeaviateStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := weaviate.NewStore(s.Weaviate)
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))
	// Idempotent.
	require.NoError(t, store.EnsureSchema(ctx))

	recs := []vector.Record{
		{ID: uuid.NewString(), Vector: []float32{1, 0, 0}, Metadata: vector.Metadata{Content: "markets", PodcastID: 1, EpisodeID: 10, StartTime: 0, EndTime: 1}},
		{ID: uuid.NewString(), Vector: []float32{0, 1, 0}, Metadata: vector.Metadata{Content: "startups", PodcastID: 1, EpisodeID: 11, StartTime: 1, EndTime: 2}},
		{ID: uuid.NewString(), Vector: []float32{1, 0.1, 0}, Metadata: vector.Metadata{Content: "other show", PodcastID: 2, EpisodeID: 20, StartTime: 0, EndTime: 1}},
	}
	stored, err := store.Upsert(ctx, vector.Namespace(1), recs[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	stored, err = store.Upsert(ctx, vector.Namespace(2), recs[2:])
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 10, []int64{1})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "markets", matches[0].Metadata.Content)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	require.NoError(t, store.DeleteByEpisode(ctx, vector.Namespace(1), 10))
	matches, err = store.Query(ctx, []float32{1, 0, 0}, 10, []int64{1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(11), matches[0].Metadata.EpisodeID)

	require.NoError(t, store.DeleteNamespace(ctx, vector.Namespace(1)))
	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
