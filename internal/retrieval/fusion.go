package retrieval

import (
	"sort"
	"strconv"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/vector"
)

type Source string

const (
	SourceSemantic Source = "semantic"
	SourceKeyword  Source = "keyword"
	SourceBoth     Source = "both"
)

// Candidate is a fused hit before enrichment. Scores only compare within one
// Search call.
type Candidate struct {
	Key      ResultKey
	ID       string
	ChunkID  int64
	Metadata vector.Metadata
	Score    float64
	Source   Source
}

type FusionOptions struct {
	// Boost is added when both modes return the same chunk. Zero or less
	// selects the default of 0.2; config validation rejects it.
	Boost float64
	// KeywordBase is the score of a keyword-only hit. Zero or less selects
	// the default of 0.5.
	KeywordBase float64
}

func (o FusionOptions) withDefaults() FusionOptions {
	if o.Boost <= 0 {
		o.Boost = 0.2
	}
	if o.KeywordBase <= 0 {
		o.KeywordBase = 0.5
	}
	return o
}

func keywordKey(h catalog.KeywordHit) ResultKey {
	if h.EmbeddingID != "" {
		return VectorKey(h.EmbeddingID)
	}
	return CompositeKey(h.EpisodeID, h.StartTime)
}

// Fuse merges semantic and keyword hits into one candidate list sorted by
// descending score. A chunk found by both modes scores strictly above what
// either mode alone would give it, and is boosted at most once.
func Fuse(semantic []vector.Match, keyword []catalog.KeywordHit, opts FusionOptions) []Candidate {
	opts = opts.withDefaults()

	index := make(map[string]int, len(semantic)+len(keyword))
	var out []Candidate

	for _, m := range semantic {
		key := VectorKey(m.ID)
		if _, ok := index[key.String()]; ok {
			continue
		}
		index[key.String()] = len(out)
		out = append(out, Candidate{
			Key:      key,
			ID:       m.ID,
			Metadata: m.Metadata,
			Score:    m.Score,
			Source:   SourceSemantic,
		})
	}

	for _, h := range keyword {
		key := keywordKey(h)
		if i, ok := index[key.String()]; ok {
			c := &out[i]
			if c.ChunkID == 0 {
				c.ChunkID = h.ChunkID
			}
			if c.Source == SourceSemantic {
				c.Score = max(c.Score, opts.KeywordBase) + opts.Boost
				c.Source = SourceBoth
			}
			continue
		}

		id := h.EmbeddingID
		if id == "" {
			id = strconv.FormatInt(h.ChunkID, 10)
		}
		index[key.String()] = len(out)
		out = append(out, Candidate{
			Key:     key,
			ID:      id,
			ChunkID: h.ChunkID,
			Metadata: vector.Metadata{
				Content:   h.Content,
				PodcastID: h.PodcastID,
				EpisodeID: h.EpisodeID,
				SpeakerID: h.SpeakerID,
				StartTime: h.StartTime,
				EndTime:   h.EndTime,
			},
			Score:  opts.KeywordBase,
			Source: SourceKeyword,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
