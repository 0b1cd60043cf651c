package retrieval

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but in on at to for with about is are was were
		be been being have has had do does did of by from that this these those it its
		what which who whom whose when where why how`) {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords lowercases the query, strips punctuation and returns the
// distinct words longer than two characters that are not stop words, in
// first-seen order.
func ExtractKeywords(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, query)

	seen := make(map[string]struct{})
	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}
