package graph

import (
	"path"
	"strings"

	"github.com/starford/mimir/internal/models"
)

// Resolve maps a wikilink target to one of the known note paths. It tries an
// exact match, then target+".md", then the bare file name. Duplicate bare
// names resolve to the first path in listing order.
func Resolve(target string, paths []string) (string, bool) {
	for _, p := range paths {
		if p == target {
			return p, true
		}
	}
	withExt := target + models.NoteExt
	for _, p := range paths {
		if p == withExt {
			return p, true
		}
	}
	for _, p := range paths {
		if BareName(p) == target {
			return p, true
		}
	}
	return "", false
}

// BareName strips the directory and the note extension from p.
func BareName(p string) string {
	return strings.TrimSuffix(path.Base(p), models.NoteExt)
}
