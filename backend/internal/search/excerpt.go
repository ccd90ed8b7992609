package search

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var plainText = bluemonday.StrictPolicy()

// Excerpt returns plain text of at most length runes from content, centred on
// the first query term it contains. Without a hit it starts at the beginning.
func Excerpt(content, query string, length int) string {
	text := []rune(strings.Join(strings.Fields(html.UnescapeString(plainText.Sanitize(content))), " "))
	if length <= 0 || len(text) <= length {
		return string(text)
	}

	start := 0
	lower := strings.ToLower(string(text))
	for _, term := range queryTerms(query) {
		if idx := strings.Index(lower, term); idx >= 0 {
			pos := len([]rune(lower[:idx]))
			start = max(0, pos-length/2)
			break
		}
	}
	end := min(len(text), start+length)
	start = max(0, end-length)

	excerpt := string(text[start:end])
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(text) {
		excerpt += "..."
	}
	return excerpt
}

// queryTerms lowercases the words of a free text query, dropping excluded
// words and phrase quotes.
func queryTerms(query string) []string {
	var terms []string
	for _, tok := range tokenize(query) {
		if strings.HasPrefix(tok.text, "-") {
			continue
		}
		term := strings.ToLower(strings.TrimFunc(tok.text, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
