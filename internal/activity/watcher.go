package activity

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mimir/internal/models"
)

// ReasonOnDisk marks events detected by the watcher rather than the service.
const ReasonOnDisk = "edited on disk"

// Watch starts an fsnotify watcher on a file-system vault root (laid out as
// root/<user>/<path>) and records note changes into log until ctx is
// cancelled. Changes already recorded by the service are deduplicated.
//
// New directories created at runtime, including new user directories, are
// added to the watch list automatically.
func Watch(ctx context.Context, root string, log *Log, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may land before the new dir is watched.
					observeDir(root, ev.Name, log)
					continue
				}
			}

			userID, rel, ok := split(root, ev.Name)
			if !ok {
				continue
			}

			var action Action
			switch {
			case ev.Op&fsnotify.Create != 0:
				action = ActionCreated
			case ev.Op&fsnotify.Write != 0:
				action = ActionUpdated
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; the new path arrives as Create.
				action = ActionDeleted
			default:
				continue
			}
			if log.Observe(userID, action, rel, ReasonOnDisk) {
				logger.Debug("watcher: recorded",
					slog.String("user", userID),
					slog.String("path", rel),
					slog.String("op", string(action)))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// split maps an absolute file path to its user id and vault-relative note
// path. Files outside a user directory and non-note files are rejected.
func split(root, abs string) (string, string, bool) {
	if !strings.HasSuffix(abs, models.NoteExt) {
		return "", "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", "", false
	}
	userID, path, found := strings.Cut(filepath.ToSlash(rel), "/")
	if !found || userID == ".." || path == "" {
		return "", "", false
	}
	return userID, path, true
}

// observeDir records a creation for every note already inside dir.
func observeDir(root, dir string, log *Log) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if userID, rel, ok := split(root, p); ok {
			log.Observe(userID, ActionCreated, rel, ReasonOnDisk)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
