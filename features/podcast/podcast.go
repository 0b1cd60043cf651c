// Package podcast manages the catalog of podcasts, episodes and speakers.
package podcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/vector"
)

var ErrValidation = errors.New("validation failed")

type Repository interface {
	CreatePodcast(ctx context.Context, p *catalog.Podcast) error
	GetPodcast(ctx context.Context, id int64) (*catalog.Podcast, error)
	ListPodcasts(ctx context.Context) ([]catalog.Podcast, error)
	DeletePodcast(ctx context.Context, id int64) error
	CreateEpisode(ctx context.Context, e *catalog.Episode) error
	GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error)
	ListEpisodes(ctx context.Context, podcastID int64) ([]catalog.Episode, error)
	DeleteEpisode(ctx context.Context, id int64) error
	UpsertSpeaker(ctx context.Context, name string) (int64, error)
	ListSpeakers(ctx context.Context) ([]catalog.Speaker, error)
	ListEpisodeSpeakers(ctx context.Context, episodeID int64) ([]catalog.Speaker, error)
	LinkEpisodeSpeakers(ctx context.Context, episodeID int64, speakerIDs []int64) error
}

// VectorCleaner removes indexed chunks once their relational rows are gone.
type VectorCleaner interface {
	DeleteNamespace(ctx context.Context, namespace string) error
	DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error
}

type Service struct {
	repo    Repository
	vectors VectorCleaner
}

func NewService(repo Repository, vectors VectorCleaner) *Service {
	return &Service{repo: repo, vectors: vectors}
}

func (s *Service) CreatePodcast(ctx context.Context, p *catalog.Podcast) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return s.repo.CreatePodcast(ctx, p)
}

func (s *Service) GetPodcast(ctx context.Context, id int64) (*catalog.Podcast, error) {
	return s.repo.GetPodcast(ctx, id)
}

func (s *Service) ListPodcasts(ctx context.Context) ([]catalog.Podcast, error) {
	return s.repo.ListPodcasts(ctx)
}

// DeletePodcast removes the podcast with its episodes and chunks, then drops
// its vector namespace. A vector failure is logged; the podcast stays deleted.
func (s *Service) DeletePodcast(ctx context.Context, id int64) error {
	if err := s.repo.DeletePodcast(ctx, id); err != nil {
		return err
	}
	ns := vector.Namespace(id)
	if err := s.vectors.DeleteNamespace(ctx, ns); err != nil {
		slog.WarnContext(ctx, "failed to delete podcast vectors", "podcast_id", id, "namespace", ns, "error", err)
	}
	return nil
}

// EpisodeInput creates an episode and links the named speakers, creating
// speakers that do not exist yet.
type EpisodeInput struct {
	catalog.Episode
	Speakers []string `json:"speakers"`
}

type EpisodeDetail struct {
	catalog.Episode
	Speakers []catalog.Speaker `json:"speakers"`
}

func (s *Service) CreateEpisode(ctx context.Context, in EpisodeInput) (*EpisodeDetail, error) {
	ep := in.Episode
	ep.Title = strings.TrimSpace(ep.Title)
	if ep.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := s.repo.GetPodcast(ctx, ep.PodcastID); err != nil {
		return nil, fmt.Errorf("podcast %d: %w", ep.PodcastID, err)
	}
	if err := s.repo.CreateEpisode(ctx, &ep); err != nil {
		return nil, err
	}
	if err := s.LinkSpeakers(ctx, ep.ID, in.Speakers); err != nil {
		return nil, err
	}
	return s.episodeDetail(ctx, &ep)
}

func (s *Service) GetEpisode(ctx context.Context, id int64) (*EpisodeDetail, error) {
	ep, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.episodeDetail(ctx, ep)
}

func (s *Service) episodeDetail(ctx context.Context, ep *catalog.Episode) (*EpisodeDetail, error) {
	speakers, err := s.repo.ListEpisodeSpeakers(ctx, ep.ID)
	if err != nil {
		return nil, err
	}
	if speakers == nil {
		speakers = []catalog.Speaker{}
	}
	return &EpisodeDetail{Episode: *ep, Speakers: speakers}, nil
}

func (s *Service) ListEpisodes(ctx context.Context, podcastID int64) ([]catalog.Episode, error) {
	if _, err := s.repo.GetPodcast(ctx, podcastID); err != nil {
		return nil, err
	}
	return s.repo.ListEpisodes(ctx, podcastID)
}

// DeleteEpisode removes the episode and its chunks, then its vectors.
func (s *Service) DeleteEpisode(ctx context.Context, id int64) error {
	ep, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEpisode(ctx, id); err != nil {
		return err
	}
	ns := vector.Namespace(ep.PodcastID)
	if err := s.vectors.DeleteByEpisode(ctx, ns, id); err != nil {
		slog.WarnContext(ctx, "failed to delete episode vectors", "episode_id", id, "namespace", ns, "error", err)
	}
	return nil
}

func (s *Service) ListSpeakers(ctx context.Context) ([]catalog.Speaker, error) {
	return s.repo.ListSpeakers(ctx)
}

func (s *Service) CreateSpeaker(ctx context.Context, name string) (*catalog.Speaker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	id, err := s.repo.UpsertSpeaker(ctx, name)
	if err != nil {
		return nil, err
	}
	return &catalog.Speaker{ID: id, Name: name}, nil
}

// LinkSpeakers attaches speakers to an episode by name. Blank names are
// ignored.
func (s *Service) LinkSpeakers(ctx context.Context, episodeID int64, names []string) error {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := s.repo.UpsertSpeaker(ctx, name)
		if err != nil {
			return fmt.Errorf("speaker %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return s.repo.LinkEpisodeSpeakers(ctx, episodeID, ids)
}
