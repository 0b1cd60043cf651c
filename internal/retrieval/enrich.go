package retrieval

import (
	"context"
	"log/slog"

	"podcastqa/apps/backend/internal/catalog"
)

// Catalog is the relational side of retrieval.
type Catalog interface {
	KeywordSearch(ctx context.Context, keyword string, podcastIDs []int64, limit int) ([]catalog.KeywordHit, error)
	GetEpisode(ctx context.Context, id int64) (*catalog.Episode, error)
	GetPodcast(ctx context.Context, id int64) (*catalog.Podcast, error)
	GetSpeaker(ctx context.Context, id int64) (*catalog.Speaker, error)
}

// resolver memoises catalog lookups for the lifetime of one Search call.
// A nil entry records a failed lookup.
type resolver struct {
	cat      Catalog
	episodes map[int64]*catalog.Episode
	podcasts map[int64]*catalog.Podcast
	speakers map[int64]*catalog.Speaker
}

func newResolver(cat Catalog) *resolver {
	return &resolver{
		cat:      cat,
		episodes: make(map[int64]*catalog.Episode),
		podcasts: make(map[int64]*catalog.Podcast),
		speakers: make(map[int64]*catalog.Speaker),
	}
}

func (r *resolver) episode(ctx context.Context, id int64) *catalog.Episode {
	if e, ok := r.episodes[id]; ok {
		return e
	}
	e, err := r.cat.GetEpisode(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "episode lookup failed", "episode_id", id, "error", err)
		e = nil
	}
	r.episodes[id] = e
	return e
}

func (r *resolver) podcast(ctx context.Context, id int64) *catalog.Podcast {
	if p, ok := r.podcasts[id]; ok {
		return p
	}
	p, err := r.cat.GetPodcast(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "podcast lookup failed", "podcast_id", id, "error", err)
		p = nil
	}
	r.podcasts[id] = p
	return p
}

func (r *resolver) speaker(ctx context.Context, id *int64) *catalog.Speaker {
	if id == nil {
		return nil
	}
	if s, ok := r.speakers[*id]; ok {
		return s
	}
	s, err := r.cat.GetSpeaker(ctx, *id)
	if err != nil {
		slog.WarnContext(ctx, "speaker lookup failed", "speaker_id", *id, "error", err)
		s = nil
	}
	r.speakers[*id] = s
	return s
}

func (r *resolver) speakerName(ctx context.Context, id *int64) string {
	if s := r.speaker(ctx, id); s != nil {
		return s.Name
	}
	return UnknownSpeakerName
}

// enrich attaches episode, podcast and speaker data until limit results are
// collected. Candidates whose episode or podcast cannot be resolved are
// dropped; a missing speaker is not fatal.
func (r *resolver) enrich(ctx context.Context, candidates []Candidate, limit int) []SearchResult {
	results := make([]SearchResult, 0, min(len(candidates), limit))
	for _, c := range candidates {
		if len(results) >= limit {
			break
		}
		ep := r.episode(ctx, c.Metadata.EpisodeID)
		if ep == nil {
			slog.WarnContext(ctx, "dropping candidate with unresolved episode", "id", c.ID, "episode_id", c.Metadata.EpisodeID)
			continue
		}
		pod := r.podcast(ctx, ep.PodcastID)
		if pod == nil {
			slog.WarnContext(ctx, "dropping candidate with unresolved podcast", "id", c.ID, "podcast_id", ep.PodcastID)
			continue
		}

		res := SearchResult{
			ID:           c.ID,
			ChunkID:      c.ChunkID,
			Content:      c.Metadata.Content,
			Score:        c.Score,
			Source:       c.Source,
			EpisodeID:    ep.ID,
			PodcastID:    pod.ID,
			SpeakerID:    c.Metadata.SpeakerID,
			StartTime:    c.Metadata.StartTime,
			EndTime:      c.Metadata.EndTime,
			EpisodeTitle: ep.Title,
			EpisodeURL:   ep.AudioURL,
			PodcastName:  pod.Name,
		}
		if s := r.speaker(ctx, c.Metadata.SpeakerID); s != nil {
			res.SpeakerName = s.Name
		}
		results = append(results, res)
	}
	return results
}
