// Package parser extracts frontmatter headers, wikilinks, and word counts from Markdown notes.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/mimir/internal/models"
)

// TimeLayout is the ISO-8601 layout used for header timestamps.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

const delim = "---"

var wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Result holds the output of parsing a Markdown note.
type Result struct {
	Header    *models.Header
	Body      string
	Wikilinks []string
	WordCount int
}

// Parse extracts the header, body, wikilinks, and word count from raw note bytes.
// It never fails: a missing or malformed header yields a nil Header.
func Parse(data []byte) *Result {
	return parseAt(data, time.Now())
}

func parseAt(data []byte, now time.Time) *Result {
	fm, body, ok := frontmatter(data)
	var h *models.Header
	if ok {
		h = headerFrom(fm, now)
	}
	return &Result{
		Header:    h,
		Body:      body,
		Wikilinks: extractLinks(body),
		WordCount: len(strings.Fields(body)),
	}
}

// ParseHeader returns the structured header of a note, or nil when the note
// has no header or the header is not a valid YAML mapping.
func ParseHeader(data []byte) *models.Header {
	fm, _, ok := frontmatter(data)
	if !ok {
		return nil
	}
	return headerFrom(fm, time.Now())
}

// ExtractBody returns the note text after the header. Without a valid header
// the raw content is returned unchanged.
func ExtractBody(data []byte) string {
	_, body, _ := frontmatter(data)
	return body
}

// ExtractWikilinks returns the distinct [[wikilink]] targets of the body in
// first-seen order. Display labels after a pipe are dropped.
func ExtractWikilinks(data []byte) []string {
	return extractLinks(ExtractBody(data))
}

// CountWords counts whitespace-delimited words in the body.
func CountWords(data []byte) int {
	return len(strings.Fields(ExtractBody(data)))
}

// frontmatter decodes the YAML header. ok is false when the header is absent
// or malformed, in which case body is the raw input.
func frontmatter(data []byte) (map[string]any, string, bool) {
	mapping, body, ok := headerNode(data)
	if !ok {
		return nil, string(data), false
	}
	fm := map[string]any{}
	if mapping != nil {
		if err := mapping.Decode(&fm); err != nil {
			return nil, string(data), false
		}
	}
	return fm, body, true
}

// headerNode returns the header mapping node (nil for an empty header) and
// the trimmed body.
func headerNode(data []byte) (*yaml.Node, string, bool) {
	block, body, ok := split(string(data))
	if !ok {
		return nil, "", false
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, "", false
	}
	body = strings.TrimSpace(body)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, body, true
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, "", false
	}
	return doc.Content[0], body, true
}

// split separates the block between the leading --- fences from the rest.
func split(text string) (string, string, bool) {
	text = strings.TrimLeft(text, "\r\n")
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, "\r ") != delim {
		return "", "", false
	}
	offset := 0
	for {
		line, next, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, "\r ") == delim {
			if !more {
				next = ""
			}
			return rest[:offset], next, true
		}
		if !more {
			// No closing delimiter.
			return "", "", false
		}
		offset += len(line) + 1
	}
}

func headerFrom(fm map[string]any, now time.Time) *models.Header {
	h := &models.Header{
		Title:   scalar(fm["title"]),
		Created: timestamp(fm["created"], now),
		Updated: timestamp(fm["updated"], now),
		Tags:    stringList(fm["tags"]),
		Type:    models.TypeConcept,
		Links:   stringList(fm["links"]),
	}
	if t := scalar(fm["type"]); t != "" {
		h.Type = models.NoteType(t)
	}
	switch c := models.Confidence(scalar(fm["confidence"])); c {
	case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
		h.Confidence = c
	}
	if b, ok := fm["auto-maintained"].(bool); ok {
		h.AutoMaintained = &b
	}
	return h
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func timestamp(v any, now time.Time) string {
	if s := scalar(v); s != "" {
		return s
	}
	return now.UTC().Format(TimeLayout)
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(scalar(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		// [[Target|Alias]] → Target.
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}
