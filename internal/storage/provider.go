// Package storage defines the per-user vault file store and its backends.
package storage

import "context"

// Provider is the interface for vault file operations. Every path is
// slash-delimited and relative to the user's vault root.
type Provider interface {
	// Read returns the raw bytes of the file at path, or apperr.ErrNotFound.
	Read(ctx context.Context, userID, path string) ([]byte, error)
	// Write stores content at path, creating parent directories as needed.
	Write(ctx context.Context, userID, path string, content []byte) error
	// Delete removes the file at path. Deleting an absent file is not an error.
	Delete(ctx context.Context, userID, path string) error
	// List returns the paths under dir sorted by path. Recursive listings
	// contain files only; otherwise direct subdirectories are included with a
	// trailing slash. A missing directory yields an empty listing.
	List(ctx context.Context, userID, dir string, recursive bool) ([]string, error)
	// Exists reports whether a file is stored at path.
	Exists(ctx context.Context, userID, path string) (bool, error)
}
