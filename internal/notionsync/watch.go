package notionsync

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchMapping reloads the mapping file on every write and passes the new
// mapping to onChange. A file that fails to parse is logged and ignored, so
// the previous mapping stays active. The parent directory is watched so a
// save that renames a new file over path keeps being seen. It runs until ctx
// is cancelled.
func WatchMapping(ctx context.Context, path string, log zerolog.Logger, onChange func(FieldMapping)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("WatchMapping: create watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("WatchMapping: watch %s: %w", dir, err)
	}

	log.Info().Str("path", path).Msg("Watching field mapping for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// Editors that save atomically show up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			mapping, err := LoadMapping(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Field mapping reload failed, keeping previous mapping")
				continue
			}

			log.Info().Str("path", path).Msg("Field mapping reloaded")
			onChange(mapping)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Field mapping watcher error")
		}
	}
}
