package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/mimir/internal/apperr"
)

// cleanPath normalises a vault-relative path and rejects anything that
// would escape the vault root. The root itself is returned as "".
func cleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	trimmed := strings.Trim(p, "/")
	if trimmed != "" && strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("storage: %w: absolute paths not allowed: %s", apperr.ErrInvalidInput, p)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." {
			return "", fmt.Errorf("storage: %w: path escapes vault root: %s", apperr.ErrInvalidInput, p)
		}
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

// cleanFile is cleanPath for paths that must name a file.
func cleanFile(p string) (string, error) {
	cleaned, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return "", fmt.Errorf("storage: %w: path is required", apperr.ErrInvalidInput)
	}
	return cleaned, nil
}

// checkUser rejects user ids that cannot act as a namespace segment.
func checkUser(userID string) error {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return fmt.Errorf("storage: %w: bad user id %q", apperr.ErrInvalidInput, userID)
	}
	return nil
}

// children derives a directory listing from sorted file paths.
func children(paths []string, dir string, recursive bool) []string {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if recursive {
			out = append(out, p)
			continue
		}
		rest := p[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			sub := prefix + rest[:i] + "/"
			if _, ok := seen[sub]; !ok {
				seen[sub] = struct{}{}
				out = append(out, sub)
			}
			continue
		}
		out = append(out, p)
	}
	return out
}
