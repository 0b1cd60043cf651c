package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcastqa/apps/backend/internal/transcript"
)

func int64Ptr(v int64) *int64 { return &v }

func sampleTranscript() transcript.Transcript {
	return transcript.Transcript{
		Metadata: transcript.Metadata{PodcastID: 1, EpisodeID: 10, Title: "Pilot"},
		Segments: []transcript.Segment{
			{Content: "Welcome back. Today we talk markets!", Speaker: "Host", SpeakerID: int64Ptr(1), StartTime: 0, EndTime: 4},
			{Content: "Thanks for having me.", Speaker: "Guest", SpeakerID: int64Ptr(2), StartTime: 4, EndTime: 6},
			{Content: "So, what is venture capital?", Speaker: "Host", SpeakerID: int64Ptr(1), StartTime: 6, EndTime: 9},
			{Content: "It is risk capital.", Speaker: "Guest", StartTime: 9, EndTime: 12},
		},
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"Single", "Hello world", []string{"Hello world"}},
		{"Mixed Terminators", "One. Two! Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
		{"No Split Without Space", "Version 1.5 shipped.Then more", []string{"Version 1.5 shipped.Then more"}},
		{"Trailing Whitespace", "Done.   ", []string{"Done."}},
		{"Newline Boundary", "First.\nSecond.", []string{"First.", "Second."}},
		{"Empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestSentenceChunks(t *testing.T) {
	seg := transcript.Segment{
		Content:   "Short one. A much longer second sentence here.",
		Speaker:   "Host",
		SpeakerID: int64Ptr(5),
		StartTime: 10,
		EndTime:   20,
	}

	chunks := SentenceChunks([]transcript.Segment{seg}, 3)
	require.Len(t, chunks, 2)

	for _, c := range chunks {
		assert.Equal(t, ChunkKindSentence, c.Kind)
		assert.Equal(t, int64(3), c.EpisodeID)
		assert.Equal(t, int64(5), *c.SpeakerID)
		assert.GreaterOrEqual(t, c.StartTime, seg.StartTime)
		assert.LessOrEqual(t, c.StartTime, c.EndTime)
	}

	// Start slots are equal divisions of the segment.
	assert.InDelta(t, 10.0, chunks[0].StartTime, 1e-9)
	assert.InDelta(t, 15.0, chunks[1].StartTime, 1e-9)

	// Durations are proportional to sentence length.
	// 10 of 46 runes and 35 of 46 runes over a ten second segment.
	assert.InDelta(t, 100.0/46, chunks[0].EndTime-chunks[0].StartTime, 1e-9)
	assert.InDelta(t, 350.0/46, chunks[1].EndTime-chunks[1].StartTime, 1e-9)
}

func TestSentenceChunks_LateSentenceRunsPastSegment(t *testing.T) {
	seg := transcript.Segment{
		Content:   "Hi. This is a much longer second sentence.",
		StartTime: 0,
		EndTime:   10,
	}

	chunks := SentenceChunks([]transcript.Segment{seg}, 1)
	require.Len(t, chunks, 2)

	// The second sentence starts halfway and keeps its full 38/42 share.
	assert.InDelta(t, 5.0, chunks[1].StartTime, 1e-9)
	assert.InDelta(t, 5.0+10.0*38/42, chunks[1].EndTime, 1e-9)
	assert.Greater(t, chunks[1].EndTime, seg.EndTime)
}

func TestCrossSectionChunks(t *testing.T) {
	tr := sampleTranscript()

	chunks := CrossSectionChunks(tr.Segments, 10, 2, 3)
	// Four segments: three windows of width 2, two of width 3.
	require.Len(t, chunks, 5)

	first := chunks[0]
	assert.Equal(t, "Host: Welcome back. Today we talk markets! Guest: Thanks for having me.", first.Content)
	assert.Nil(t, first.SpeakerID)
	assert.Equal(t, ChunkKindCrossSection, first.Kind)
	assert.Equal(t, 0.0, first.StartTime)
	assert.Equal(t, 6.0, first.EndTime)

	widest := chunks[1]
	assert.Equal(t, 0.0, widest.StartTime)
	assert.Equal(t, 9.0, widest.EndTime)

	t.Run("Too Few Segments", func(t *testing.T) {
		assert.Empty(t, CrossSectionChunks(tr.Segments[:1], 10, 2, 3))
	})
}

func TestBuildChunks(t *testing.T) {
	tr := sampleTranscript()

	chunks := BuildChunks(tr)

	var sentences, cross int
	for _, c := range chunks {
		assert.True(t, c.Valid())
		assert.Equal(t, int64(10), c.EpisodeID)
		switch c.Kind {
		case ChunkKindSentence:
			sentences++
		case ChunkKindCrossSection:
			cross++
		}
	}
	assert.Equal(t, 5, sentences)
	assert.Equal(t, 5, cross)

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, chunks, BuildChunks(tr))
	})

	t.Run("Empty Transcript", func(t *testing.T) {
		assert.Empty(t, BuildChunks(transcript.Transcript{}))
	})
}
