package podcast_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"podcastqa/apps/backend/features/podcast"
	"podcastqa/apps/backend/internal/catalog"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CreatePodcast(ctx context.Context, p *catalog.Podcast) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepo) GetPodcast(ctx context.Context, id int64) (*catalog.Podcast, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Podcast), args.Error(1)
}

func (m *MockRepo) ListPodcasts(ctx context.Context) ([]catalog.Podcast, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Podcast), args.Error(1)
}

func (m *MockRepo) DeletePodcast(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) CreateEpisode(ctx context.Context, e *catalog.Episode) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		e.ID = 10
	}
	return args.Error(0)
}

func (m *MockRepo) GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Episode), args.Error(1)
}

func (m *MockRepo) ListEpisodes(ctx context.Context, podcastID int64) ([]catalog.Episode, error) {
	args := m.Called(ctx, podcastID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Episode), args.Error(1)
}

func (m *MockRepo) DeleteEpisode(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) UpsertSpeaker(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepo) ListSpeakers(ctx context.Context) ([]catalog.Speaker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Speaker), args.Error(1)
}

func (m *MockRepo) ListEpisodeSpeakers(ctx context.Context, episodeID int64) ([]catalog.Speaker, error) {
	args := m.Called(ctx, episodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Speaker), args.Error(1)
}

func (m *MockRepo) LinkEpisodeSpeakers(ctx context.Context, episodeID int64, speakerIDs []int64) error {
	return m.Called(ctx, episodeID, speakerIDs).Error(0)
}

type MockVectors struct {
	mock.Mock
}

func (m *MockVectors) DeleteNamespace(ctx context.Context, namespace string) error {
	return m.Called(ctx, namespace).Error(0)
}

func (m *MockVectors) DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error {
	return m.Called(ctx, namespace, episodeID).Error(0)
}

func TestService_CreatePodcast(t *testing.T) {
	t.Run("Trims And Stores", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("CreatePodcast", mock.Anything, mock.MatchedBy(func(p *catalog.Podcast) bool { return p.Name == "Founders" })).Return(nil)
		svc := podcast.NewService(repo, new(MockVectors))

		p := &catalog.Podcast{Name: "  Founders "}
		require.NoError(t, svc.CreatePodcast(context.Background(), p))
		assert.Equal(t, int64(1), p.ID)
	})

	t.Run("Blank Name", func(t *testing.T) {
		repo := new(MockRepo)
		svc := podcast.NewService(repo, new(MockVectors))

		err := svc.CreatePodcast(context.Background(), &catalog.Podcast{Name: "  "})
		assert.ErrorIs(t, err, podcast.ErrValidation)
		repo.AssertNotCalled(t, "CreatePodcast", mock.Anything, mock.Anything)
	})
}

func TestService_DeletePodcast(t *testing.T) {
	tests := []struct {
		name      string
		repoErr   error
		vectorErr error
		wantErr   error
		vectors   bool
	}{
		{name: "Deletes Namespace", vectors: true},
		{name: "Vector Failure Is Best Effort", vectorErr: errors.New("weaviate down"), vectors: true},
		{name: "Unknown Podcast", repoErr: catalog.ErrNotFound, wantErr: catalog.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, vectors := new(MockRepo), new(MockVectors)
			repo.On("DeletePodcast", mock.Anything, int64(3)).Return(tt.repoErr)
			vectors.On("DeleteNamespace", mock.Anything, "podcast-3").Return(tt.vectorErr)

			err := podcast.NewService(repo, vectors).DeletePodcast(context.Background(), 3)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.vectors {
				vectors.AssertCalled(t, "DeleteNamespace", mock.Anything, "podcast-3")
			} else {
				vectors.AssertNotCalled(t, "DeleteNamespace", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestService_CreateEpisode(t *testing.T) {
	t.Run("Links Named Speakers", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("GetPodcast", mock.Anything, int64(1)).Return(&catalog.Podcast{ID: 1}, nil)
		repo.On("CreateEpisode", mock.Anything, mock.Anything).Return(nil)
		repo.On("UpsertSpeaker", mock.Anything, "Alice").Return(int64(7), nil)
		repo.On("UpsertSpeaker", mock.Anything, "Bob").Return(int64(8), nil)
		repo.On("LinkEpisodeSpeakers", mock.Anything, int64(10), []int64{7, 8}).Return(nil)
		repo.On("ListEpisodeSpeakers", mock.Anything, int64(10)).Return([]catalog.Speaker{{ID: 7, Name: "Alice"}, {ID: 8, Name: "Bob"}}, nil)

		in := podcast.EpisodeInput{Speakers: []string{"Alice", " ", "Bob"}}
		in.PodcastID = 1
		in.Title = "Pilot"
		detail, err := podcast.NewService(repo, new(MockVectors)).CreateEpisode(context.Background(), in)

		require.NoError(t, err)
		assert.Equal(t, int64(10), detail.ID)
		assert.Equal(t, "Pilot", detail.Title)
		assert.Len(t, detail.Speakers, 2)
		repo.AssertExpectations(t)
	})

	t.Run("Unknown Podcast", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("GetPodcast", mock.Anything, int64(2)).Return(nil, catalog.ErrNotFound)

		in := podcast.EpisodeInput{}
		in.PodcastID = 2
		in.Title = "Pilot"
		_, err := podcast.NewService(repo, new(MockVectors)).CreateEpisode(context.Background(), in)

		assert.ErrorIs(t, err, catalog.ErrNotFound)
		repo.AssertNotCalled(t, "CreateEpisode", mock.Anything, mock.Anything)
	})

	t.Run("Missing Title", func(t *testing.T) {
		in := podcast.EpisodeInput{}
		in.PodcastID = 1
		_, err := podcast.NewService(new(MockRepo), new(MockVectors)).CreateEpisode(context.Background(), in)
		assert.ErrorIs(t, err, podcast.ErrValidation)
	})
}

func TestService_DeleteEpisode(t *testing.T) {
	t.Run("Deletes Vectors In Podcast Namespace", func(t *testing.T) {
		repo, vectors := new(MockRepo), new(MockVectors)
		repo.On("GetEpisode", mock.Anything, int64(10)).Return(&catalog.Episode{ID: 10, PodcastID: 4}, nil)
		repo.On("DeleteEpisode", mock.Anything, int64(10)).Return(nil)
		vectors.On("DeleteByEpisode", mock.Anything, "podcast-4", int64(10)).Return(errors.New("timeout"))

		err := podcast.NewService(repo, vectors).DeleteEpisode(context.Background(), 10)

		assert.NoError(t, err)
		vectors.AssertExpectations(t)
	})

	t.Run("Unknown Episode", func(t *testing.T) {
		repo, vectors := new(MockRepo), new(MockVectors)
		repo.On("GetEpisode", mock.Anything, int64(11)).Return(nil, catalog.ErrNotFound)

		err := podcast.NewService(repo, vectors).DeleteEpisode(context.Background(), 11)

		assert.ErrorIs(t, err, catalog.ErrNotFound)
		repo.AssertNotCalled(t, "DeleteEpisode", mock.Anything, mock.Anything)
		vectors.AssertNotCalled(t, "DeleteByEpisode", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_LinkSpeakers_UpsertFailure(t *testing.T) {
	repo := new(MockRepo)
	repo.On("UpsertSpeaker", mock.Anything, "Alice").Return(int64(0), errors.New("db down"))

	err := podcast.NewService(repo, new(MockVectors)).LinkSpeakers(context.Background(), 10, []string{"Alice"})

	assert.ErrorContains(t, err, "Alice")
	repo.AssertNotCalled(t, "LinkEpisodeSpeakers", mock.Anything, mock.Anything, mock.Anything)
}
