package note

import (
	"regexp"
	"strings"
)

const maxTags = 20

var hashtagRe = regexp.MustCompile(`#([a-zA-Z0-9_]{1,32})`)

// ExtractTags returns the distinct lower-cased hashtags in content, in order of
// first appearance. Never nil.
func ExtractTags(content string) []string {
	matches := hashtagRe.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	if len(matches) == 0 {
		return out
	}

	seen := map[string]struct{}{}
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		t := strings.ToLower(m[1])
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)

		if len(out) >= maxTags {
			break
		}
	}

	return out
}
