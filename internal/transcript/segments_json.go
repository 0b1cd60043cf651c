package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type jsonSegment struct {
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker"`
	SpeakerID *int64  `json:"speakerId"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// ParseSegmentsJSON reads pre-aligned segments, either as
// {"segments":[...]} or as a bare array. Invalid segments are skipped.
func ParseSegmentsJSON(data []byte) ([]Segment, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidFormat)
	}

	var raw []jsonSegment
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	} else {
		var wrapper struct {
			Segments *[]jsonSegment `json:"segments"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if wrapper.Segments == nil {
			return nil, fmt.Errorf("%w: missing segments", ErrInvalidFormat)
		}
		raw = *wrapper.Segments
	}

	segments := make([]Segment, 0, len(raw))
	for _, r := range raw {
		speaker := strings.TrimSpace(r.Speaker)
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		seg := Segment{
			Content:   strings.TrimSpace(r.Text),
			Speaker:   speaker,
			SpeakerID: r.SpeakerID,
			StartTime: r.Start,
			EndTime:   r.End,
		}
		if seg.Valid() {
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

// ResolveSpeakers checks speaker ids against a lower-cased name directory.
// Ids that are not in the directory are cleared, then missing ids are filled
// by name. It returns the number of cleared ids.
func ResolveSpeakers(segments []Segment, directory map[string]int64) int {
	known := make(map[int64]struct{}, len(directory))
	for _, id := range directory {
		known[id] = struct{}{}
	}

	cleared := 0
	for i := range segments {
		if id := segments[i].SpeakerID; id != nil {
			if _, ok := known[*id]; ok {
				continue
			}
			segments[i].SpeakerID = nil
			cleared++
		}
		if segments[i].Speaker == UnknownSpeaker {
			continue
		}
		if id, ok := directory[strings.ToLower(segments[i].Speaker)]; ok {
			segments[i].SpeakerID = &id
		}
	}
	return cleared
}
