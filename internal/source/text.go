package source

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// cleanHTML removes tags, unescapes entities and collapses whitespace.
func cleanHTML(input string) string {
	cleaned := htmlTagRe.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// excerpt bounds s to max runes, marking the cut. Caps payload size for the
// synthesis prompt downstream.
func excerpt(s string, max int) string {
	if max <= 0 {
		return s
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max]) + "…"
}
