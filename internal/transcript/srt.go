package transcript

import (
	"strconv"
	"strings"
)

const timecodeSeparator = " --> "

// Timecodes is the parsed form of an SRT file. The three slices are parallel
// and always have the same length.
type Timecodes struct {
	StartTimes []float64
	EndTimes   []float64
	Texts      []string
	// Dropped counts blocks that were skipped as malformed.
	Dropped int
}

func (t Timecodes) Len() int {
	return len(t.Texts)
}

// ParseSRT reads blocks of the form
//
//	{index}
//	{HH:MM:SS,mmm --> HH:MM:SS,mmm}
//	{text lines}
//	{blank}
//
// Malformed blocks are skipped and counted; ParseSRT never fails.
func ParseSRT(content string) Timecodes {
	var tc Timecodes
	for _, block := range splitBlocks(content) {
		start, end, text, ok := parseBlock(block)
		if !ok || text == "" || start < 0 || start >= end {
			tc.Dropped++
			continue
		}
		tc.StartTimes = append(tc.StartTimes, start)
		tc.EndTimes = append(tc.EndTimes, end)
		tc.Texts = append(tc.Texts, text)
	}
	return tc
}

func splitBlocks(content string) [][]string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseBlock(lines []string) (start, end float64, text string, ok bool) {
	// The index line is optional in practice; the timestamp is the first or second line.
	tsIdx := -1
	for i := 0; i < len(lines) && i < 2; i++ {
		if strings.Contains(lines[i], "-->") {
			tsIdx = i
			break
		}
	}
	if tsIdx < 0 {
		return 0, 0, "", false
	}

	parts := strings.Split(lines[tsIdx], timecodeSeparator)
	if len(parts) != 2 {
		return 0, 0, "", false
	}

	start = ParseTimestamp(parts[0])
	end = ParseTimestamp(parts[1])
	text = strings.Join(lines[tsIdx+1:], " ")
	return start, end, text, true
}

// ParseTimestamp converts HH:MM:SS,mmm into seconds. A malformed field
// counts as zero; a missing field set yields zero overall.
func ParseTimestamp(ts string) float64 {
	fields := strings.Split(strings.TrimSpace(ts), ":")
	if len(fields) != 3 {
		return 0
	}

	secs, millis, _ := strings.Cut(fields[2], ",")
	if !strings.Contains(fields[2], ",") {
		secs, millis, _ = strings.Cut(fields[2], ".")
	}

	return float64(atoiOrZero(fields[0]))*3600 +
		float64(atoiOrZero(fields[1]))*60 +
		float64(atoiOrZero(secs)) +
		float64(atoiOrZero(millis))/1000
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
