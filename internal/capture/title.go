// Package capture turns a stream of speech-recognition results into a note
// draft: a transcript plus a title that follows it until the user sets one.
package capture

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxSentenceTitle = 100
	maxTitleWords    = 8
)

var firstSentenceRe = regexp.MustCompile(`^(.*?[.!?])\s`)

// GenerateTitle derives a default title from transcript text. A leading
// sentence of at most 100 characters is used verbatim; otherwise the first
// few words, scaled to the text length, followed by "..." when cut.
func GenerateTitle(text string) string {
	if text == "" {
		return ""
	}

	if m := firstSentenceRe.FindStringSubmatch(text); m != nil && utf8.RuneCountInString(m[1]) <= maxSentenceTitle {
		return m[1]
	}

	words := strings.Split(text, " ")
	n := len(words)

	var count int
	switch {
	case n <= 10:
		count = 3
	case n <= 20:
		count = 4
	case n <= 50:
		count = 5
	default:
		count = 6
	}
	count = min(count, n, maxTitleWords)

	title := strings.Join(words[:count], " ")
	if n > count {
		title += "..."
	}
	return title
}
