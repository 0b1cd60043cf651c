package transcript

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultFuzzyThreshold = 0.7
	substringScore        = 0.9
	minSimilarityWordLen  = 4
)

type AlignOptions struct {
	// Threshold a fuzzy match must exceed; zero means DefaultFuzzyThreshold.
	Threshold float64
	// Speakers maps lower-cased speaker names to catalog ids.
	Speakers map[string]int64
}

// Align attributes each timecoded span to a speaker. Exact text matches win;
// otherwise the most similar diarized line is used when its score exceeds
// the threshold; otherwise the speaker is Unknown. Cost is O(n*m).
func Align(tc Timecodes, sl SpeakerLines, meta Metadata, opts AlignOptions) Transcript {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	// Last write wins for duplicate texts.
	textToSpeaker := make(map[string]string, sl.Len())
	for i, text := range sl.Texts {
		textToSpeaker[text] = sl.Speakers[i]
	}

	out := Transcript{Metadata: meta, Segments: make([]Segment, 0, tc.Len())}
	for i, text := range tc.Texts {
		seg := Segment{
			Content:   strings.TrimSpace(text),
			StartTime: tc.StartTimes[i],
			EndTime:   tc.EndTimes[i],
		}
		if !seg.Valid() {
			continue
		}

		seg.Speaker = matchSpeaker(seg.Content, sl, textToSpeaker, threshold)
		if id, ok := opts.Speakers[strings.ToLower(seg.Speaker)]; ok && seg.Speaker != UnknownSpeaker {
			seg.SpeakerID = &id
		}
		out.Segments = append(out.Segments, seg)
	}
	return out
}

func matchSpeaker(text string, sl SpeakerLines, exact map[string]string, threshold float64) string {
	if speaker, ok := exact[text]; ok {
		return speaker
	}

	bestIdx := -1
	bestScore := 0.0
	for j, candidate := range sl.Texts {
		if score := Similarity(text, candidate); score > bestScore {
			bestScore = score
			bestIdx = j
		}
	}

	if bestIdx >= 0 && bestScore > threshold {
		// Resolve through the map so duplicate texts agree with the exact path.
		return exact[sl.Texts[bestIdx]]
	}
	return UnknownSpeaker
}

// Similarity scores two utterances in [0,1]. Case-insensitive containment
// either way scores 0.9; otherwise it is the Jaccard index of words longer
// than three characters. Empty input scores 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return substringScore
	}

	wa := significantWords(a)
	wb := significantWords(b)

	union := make(map[string]struct{}, len(wa)+len(wb))
	common := 0
	for w := range wa {
		union[w] = struct{}{}
		if _, ok := wb[w]; ok {
			common++
		}
	}
	for w := range wb {
		union[w] = struct{}{}
	}

	if len(union) == 0 {
		return 0
	}
	return float64(common) / float64(len(union))
}

func significantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) >= minSimilarityWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}
