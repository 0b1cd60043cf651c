package transcript

import (
	"regexp"
	"strings"
)

var speakerLineRe = regexp.MustCompile(`^([^:]*):\s*(.+)$`)

// SpeakerLines is the parsed form of a diarized transcript; Speakers and
// Texts are parallel.
type SpeakerLines struct {
	Speakers []string
	Texts    []string
	Skipped  int
}

func (s SpeakerLines) Len() int {
	return len(s.Texts)
}

// ParseDiarized reads lines of the form "Speaker Name: utterance". Blank
// lines are ignored; other non-matching lines are skipped and counted.
func ParseDiarized(content string) SpeakerLines {
	var sl SpeakerLines
	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := speakerLineRe.FindStringSubmatch(line)
		if m == nil {
			sl.Skipped++
			continue
		}

		text := strings.TrimSpace(m[2])
		if text == "" {
			sl.Skipped++
			continue
		}

		speaker := strings.TrimSpace(m[1])
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		sl.Speakers = append(sl.Speakers, speaker)
		sl.Texts = append(sl.Texts, text)
	}
	return sl
}
