package search

import "unicode"

const (
	snippetContext = 100
	ellipsis       = "…"
)

// Snippet returns the text around the first case-insensitive occurrence of
// term in body, with up to 100 characters on each side. When term is absent
// it returns the first 200 characters of body.
func Snippet(body, term string) string {
	text := []rune(body)
	idx := indexFold(text, []rune(term))
	if idx < 0 {
		if len(text) > 2*snippetContext {
			return string(text[:2*snippetContext]) + ellipsis
		}
		return body
	}

	start := max(0, idx-snippetContext)
	end := min(len(text), idx+len([]rune(term))+snippetContext)
	out := string(text[start:end])
	if start > 0 {
		out = ellipsis + out
	}
	if end < len(text) {
		out += ellipsis
	}
	return out
}

// indexFold finds needle in haystack comparing lower-cased runes, so the
// returned offset stays valid for haystack.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
