// Package text decomposes aligned transcripts into retrieval chunks.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"podcastqa/apps/backend/internal/transcript"
)

type ChunkKind string

const (
	// ChunkKindSentence is a single sentence from one segment, one speaker.
	ChunkKindSentence ChunkKind = "sentence"
	// ChunkKindCrossSection spans consecutive segments and may mix speakers.
	ChunkKindCrossSection ChunkKind = "cross_section"
)

// CrossSectionWidths are the segment span widths used for context windows.
var CrossSectionWidths = []int{2, 3}

type Chunk struct {
	Content   string
	EpisodeID int64
	SpeakerID *int64
	Speaker   string
	StartTime float64
	EndTime   float64
	Kind      ChunkKind
}

// Valid reports whether the chunk is worth embedding.
func (c Chunk) Valid() bool {
	return strings.TrimSpace(c.Content) != "" && c.StartTime <= c.EndTime
}

// BuildChunks returns sentence chunks followed by cross-section chunks for
// the transcript. Output is deterministic for a given transcript. Invalid
// chunks are dropped.
func BuildChunks(t transcript.Transcript) []Chunk {
	episodeID := t.Metadata.EpisodeID
	chunks := SentenceChunks(t.Segments, episodeID)
	chunks = append(chunks, CrossSectionChunks(t.Segments, episodeID, CrossSectionWidths...)...)

	out := chunks[:0]
	for _, c := range chunks {
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// SentenceChunks splits every segment into sentences.
//
// Sentence timing is an approximation: the segment is divided into k equal
// start slots and each sentence lasts for its share of the segment's
// characters. A late, long sentence may end past the segment. Real word
// timings are not available.
func SentenceChunks(segments []transcript.Segment, episodeID int64) []Chunk {
	var chunks []Chunk
	for _, seg := range segments {
		content := strings.TrimSpace(seg.Content)
		total := utf8.RuneCountInString(content)
		if total == 0 {
			continue
		}

		sentences := SplitSentences(content)
		k := float64(len(sentences))
		duration := seg.Duration()
		for i, sentence := range sentences {
			start := seg.StartTime + duration*(float64(i)/k)
			share := float64(utf8.RuneCountInString(sentence)) / float64(total)
			end := start + duration*share
			chunks = append(chunks, Chunk{
				Content:   sentence,
				EpisodeID: episodeID,
				SpeakerID: seg.SpeakerID,
				Speaker:   seg.Speaker,
				StartTime: start,
				EndTime:   end,
				Kind:      ChunkKindSentence,
			})
		}
	}
	return chunks
}

// CrossSectionChunks emits one chunk per window [i, i+w) for every width w.
// Windows overlap.
func CrossSectionChunks(segments []transcript.Segment, episodeID int64, widths ...int) []Chunk {
	var chunks []Chunk
	for i := range segments {
		for _, w := range widths {
			if w < 1 || i+w > len(segments) {
				continue
			}
			window := segments[i : i+w]

			parts := make([]string, 0, w)
			for _, seg := range window {
				parts = append(parts, seg.Speaker+": "+strings.TrimSpace(seg.Content))
			}
			chunks = append(chunks, Chunk{
				Content:   strings.Join(parts, " "),
				EpisodeID: episodeID,
				StartTime: window[0].StartTime,
				EndTime:   window[w-1].EndTime,
				Kind:      ChunkKindCrossSection,
			})
		}
	}
	return chunks
}

// SplitSentences splits on '.', '!' or '?' followed by whitespace. The
// terminator stays with its sentence. Empty sentences are dropped.
func SplitSentences(content string) []string {
	var sentences []string
	runes := []rune(content)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
