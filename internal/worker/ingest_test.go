package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"podcastqa/apps/backend/features/job"
	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/degrade"
	"podcastqa/apps/backend/internal/transcript"
	"podcastqa/apps/backend/internal/vector"
	"podcastqa/apps/backend/internal/worker"
)

// Mocks

type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Episode), args.Error(1)
}

func (m *MockCatalog) ListEpisodeSpeakers(ctx context.Context, episodeID int64) ([]catalog.Speaker, error) {
	args := m.Called(ctx, episodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Speaker), args.Error(1)
}

func (m *MockCatalog) ReplaceEpisodeChunks(ctx context.Context, episodeID int64, chunks []catalog.StoredChunk) error {
	args := m.Called(ctx, episodeID, chunks)
	return args.Error(0)
}

type MockVectors struct{ mock.Mock }

func (m *MockVectors) Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error) {
	args := m.Called(ctx, namespace, records)
	return args.Int(0), args.Error(1)
}

func (m *MockVectors) DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error {
	args := m.Called(ctx, namespace, episodeID)
	return args.Error(0)
}

type MockJobs struct{ mock.Mock }

func (m *MockJobs) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// stubEmbedder fails the indices listed in fail and embeds everything else.
type stubEmbedder struct {
	fail  map[int]bool
	calls int
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) []degrade.Result[[]float32] {
	s.calls++
	out := make([]degrade.Result[[]float32], len(texts))
	for i := range texts {
		if s.fail[i] || s.fail[-1] {
			out[i] = degrade.Fallback([]float32{0, 0}, degrade.ReasonUpstream, errors.New("quota"))
			continue
		}
		out[i] = degrade.OK([]float32{1, float32(i)})
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func twoSegmentTranscript() transcript.Transcript {
	return transcript.Transcript{
		Metadata: transcript.Metadata{PodcastID: 1, EpisodeID: 10, Title: "Pilot"},
		Segments: []transcript.Segment{
			{Content: "Welcome back.", Speaker: "Host", SpeakerID: int64Ptr(3), StartTime: 0, EndTime: 2},
			{Content: "Thanks for having me.", Speaker: "Guest", StartTime: 2, EndTime: 4},
		},
	}
}

func TestProcessTranscript(t *testing.T) {
	t.Run("Empty Transcript", func(t *testing.T) {
		c, v, e := new(MockCatalog), new(MockVectors), &stubEmbedder{}
		ing := worker.NewIngestor(c, e, v)

		res, err := ing.ProcessTranscript(context.Background(), transcript.Transcript{Metadata: transcript.Metadata{EpisodeID: 10}})
		require.NoError(t, err)
		assert.Equal(t, worker.IngestResult{ChunkCount: 0, StoredCount: 0, Success: false}, res)
		assert.Zero(t, e.calls)
		c.AssertExpectations(t)
		v.AssertExpectations(t)
	})

	t.Run("Stores Every Embedded Chunk", func(t *testing.T) {
		c, v, e := new(MockCatalog), new(MockVectors), &stubEmbedder{}

		var rows []catalog.StoredChunk
		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.Anything).
			Run(func(args mock.Arguments) { rows = args.Get(2).([]catalog.StoredChunk) }).
			Return(nil)
		v.On("DeleteByEpisode", mock.Anything, "podcast-1", int64(10)).Return(nil)
		var records []vector.Record
		v.On("Upsert", mock.Anything, "podcast-1", mock.Anything).
			Run(func(args mock.Arguments) { records = args.Get(2).([]vector.Record) }).
			Return(3, nil)

		res, err := worker.NewIngestor(c, e, v).ProcessTranscript(context.Background(), twoSegmentTranscript())
		require.NoError(t, err)
		assert.Equal(t, worker.IngestResult{ChunkCount: 3, StoredCount: 3, Success: true}, res)

		require.Len(t, rows, 3)
		require.Len(t, records, 3)
		for i := range rows {
			assert.Equal(t, rows[i].EmbeddingID, records[i].ID)
			assert.Equal(t, int64(10), records[i].Metadata.EpisodeID)
			assert.Equal(t, int64(1), records[i].Metadata.PodcastID)
			assert.Equal(t, rows[i].Content, records[i].Metadata.Content)
		}
		assert.Equal(t, "sentence", rows[0].Kind)
		assert.Equal(t, int64(3), *rows[0].SpeakerID)
		assert.Equal(t, "cross_section", rows[2].Kind)
		assert.Nil(t, rows[2].SpeakerID)
		assert.NotEqual(t, rows[0].EmbeddingID, rows[1].EmbeddingID)
	})

	t.Run("Skips Failed Embeddings", func(t *testing.T) {
		c, v, e := new(MockCatalog), new(MockVectors), &stubEmbedder{fail: map[int]bool{1: true}}

		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.MatchedBy(func(rows []catalog.StoredChunk) bool {
			return len(rows) == 2 && rows[1].Kind == "cross_section"
		})).Return(nil)
		v.On("DeleteByEpisode", mock.Anything, "podcast-1", int64(10)).Return(nil)
		v.On("Upsert", mock.Anything, "podcast-1", mock.MatchedBy(func(recs []vector.Record) bool {
			return len(recs) == 2
		})).Return(2, nil)

		res, err := worker.NewIngestor(c, e, v).ProcessTranscript(context.Background(), twoSegmentTranscript())
		require.NoError(t, err)
		assert.Equal(t, worker.IngestResult{ChunkCount: 3, StoredCount: 2, Success: true}, res)
		c.AssertExpectations(t)
		v.AssertExpectations(t)
	})

	t.Run("No Embeddings Keeps Existing Chunks", func(t *testing.T) {
		c, v, e := new(MockCatalog), new(MockVectors), &stubEmbedder{fail: map[int]bool{-1: true}}

		res, err := worker.NewIngestor(c, e, v).ProcessTranscript(context.Background(), twoSegmentTranscript())
		require.NoError(t, err)
		assert.Equal(t, worker.IngestResult{ChunkCount: 3}, res)
		c.AssertNotCalled(t, "ReplaceEpisodeChunks", mock.Anything, mock.Anything, mock.Anything)
		v.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Relational Failure Is An Error", func(t *testing.T) {
		c, v, e := new(MockCatalog), new(MockVectors), &stubEmbedder{}
		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.Anything).Return(errors.New("tx failed"))

		_, err := worker.NewIngestor(c, e, v).ProcessTranscript(context.Background(), twoSegmentTranscript())
		assert.ErrorContains(t, err, "tx failed")
		v.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Vector Failure Reports Nothing Stored", func(t *testing.T) {
		c, v, e := new(MockCatalog), new(MockVectors), &stubEmbedder{}
		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.Anything).Return(nil)
		v.On("DeleteByEpisode", mock.Anything, "podcast-1", int64(10)).Return(errors.New("weaviate down"))
		v.On("Upsert", mock.Anything, "podcast-1", mock.Anything).Return(0, errors.New("weaviate down"))

		res, err := worker.NewIngestor(c, e, v).ProcessTranscript(context.Background(), twoSegmentTranscript())
		require.NoError(t, err)
		assert.Equal(t, worker.IngestResult{ChunkCount: 3, StoredCount: 0, Success: false}, res)
	})
}

func TestIngest(t *testing.T) {
	episode := &catalog.Episode{ID: 10, PodcastID: 1, Title: "Pilot", Description: "first"}

	t.Run("Validation", func(t *testing.T) {
		ing := worker.NewIngestor(new(MockCatalog), &stubEmbedder{}, new(MockVectors))
		for _, req := range []worker.IngestRequest{
			{},
			{EpisodeID: 10},
			{EpisodeID: 10, SRTContent: "1\n00:00:00,000 --> 00:00:01,000\nhi\n"},
			{EpisodeID: 10, Segments: json.RawMessage("null")},
		} {
			_, err := ing.Ingest(context.Background(), req)
			assert.ErrorIs(t, err, worker.ErrInvalidRequest)
		}
	})

	t.Run("Unknown Episode", func(t *testing.T) {
		c := new(MockCatalog)
		c.On("GetEpisode", mock.Anything, int64(99)).Return(nil, catalog.ErrNotFound)

		_, err := worker.NewIngestor(c, &stubEmbedder{}, new(MockVectors)).Ingest(context.Background(), worker.IngestRequest{
			EpisodeID: 99, Segments: json.RawMessage(`[]`),
		})
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("Malformed Segments", func(t *testing.T) {
		c := new(MockCatalog)
		c.On("GetEpisode", mock.Anything, int64(10)).Return(episode, nil)
		c.On("ListEpisodeSpeakers", mock.Anything, int64(10)).Return([]catalog.Speaker{}, nil)

		_, err := worker.NewIngestor(c, &stubEmbedder{}, new(MockVectors)).Ingest(context.Background(), worker.IngestRequest{
			EpisodeID: 10, Segments: json.RawMessage(`{"nope":1}`),
		})
		assert.ErrorIs(t, err, transcript.ErrInvalidFormat)
	})

	t.Run("SRT And Diarized With Speaker Directory", func(t *testing.T) {
		c, v := new(MockCatalog), new(MockVectors)
		c.On("GetEpisode", mock.Anything, int64(10)).Return(episode, nil)
		c.On("ListEpisodeSpeakers", mock.Anything, int64(10)).Return([]catalog.Speaker{{ID: 42, Name: "Bill Gurley"}}, nil)

		var rows []catalog.StoredChunk
		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.Anything).
			Run(func(args mock.Arguments) { rows = args.Get(2).([]catalog.StoredChunk) }).
			Return(nil)
		v.On("DeleteByEpisode", mock.Anything, "podcast-1", int64(10)).Return(nil)
		v.On("Upsert", mock.Anything, "podcast-1", mock.Anything).Return(1, nil)

		res, err := worker.NewIngestor(c, &stubEmbedder{}, v).Ingest(context.Background(), worker.IngestRequest{
			EpisodeID:       10,
			SRTContent:      "1\n00:00:00,000 --> 00:00:03,000\nMarkets are irrational\n",
			DiarizedContent: "Bill Gurley: Markets are irrational",
		})
		require.NoError(t, err)
		assert.Equal(t, worker.IngestResult{ChunkCount: 1, StoredCount: 1, Success: true}, res)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].SpeakerID)
		assert.Equal(t, int64(42), *rows[0].SpeakerID)
	})

	t.Run("Unknown Speaker Id In Segments Is Dropped", func(t *testing.T) {
		c, v := new(MockCatalog), new(MockVectors)
		c.On("GetEpisode", mock.Anything, int64(10)).Return(episode, nil)
		c.On("ListEpisodeSpeakers", mock.Anything, int64(10)).Return([]catalog.Speaker{{ID: 42, Name: "Bill Gurley"}}, nil)

		var rows []catalog.StoredChunk
		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.Anything).
			Run(func(args mock.Arguments) { rows = args.Get(2).([]catalog.StoredChunk) }).
			Return(nil)
		v.On("DeleteByEpisode", mock.Anything, "podcast-1", int64(10)).Return(nil)
		v.On("Upsert", mock.Anything, "podcast-1", mock.Anything).Return(1, nil)

		res, err := worker.NewIngestor(c, &stubEmbedder{}, v).Ingest(context.Background(), worker.IngestRequest{
			EpisodeID: 10,
			Segments:  json.RawMessage(`[{"text":"Hello there","speaker":"Host","speakerId":999,"start":0,"end":1}]`),
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].SpeakerID)
	})

	t.Run("Speaker Lookup Failure Is Not Fatal", func(t *testing.T) {
		c, v := new(MockCatalog), new(MockVectors)
		c.On("GetEpisode", mock.Anything, int64(10)).Return(episode, nil)
		c.On("ListEpisodeSpeakers", mock.Anything, int64(10)).Return(nil, errors.New("db down"))
		c.On("ReplaceEpisodeChunks", mock.Anything, int64(10), mock.Anything).Return(nil)
		v.On("DeleteByEpisode", mock.Anything, "podcast-1", int64(10)).Return(nil)
		v.On("Upsert", mock.Anything, "podcast-1", mock.Anything).Return(1, nil)

		res, err := worker.NewIngestor(c, &stubEmbedder{}, v).Ingest(context.Background(), worker.IngestRequest{
			EpisodeID: 10,
			Segments:  json.RawMessage(`[{"text":"Hello there","speaker":"Host","start":0,"end":1}]`),
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
	})
}
