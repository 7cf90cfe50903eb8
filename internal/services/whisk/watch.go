package whisk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"storyreel/internal/services"
)

// Extensions browsers use for in-flight downloads. A file wearing one
// of these never counts as an artifact.
var partialExtensions = map[string]struct{}{
	".crdownload": {},
	".part":       {},
	".tmp":        {},
	".download":   {},
}

// awaitFiles blocks until every path exists with at least minBytes, or
// the timeout expires. Filesystem events trigger re-checks; a slow
// poll backs them up because rename-into-place can race the watcher
// registration.
func awaitFiles(ctx context.Context, paths []string, minBytes int64, timeout time.Duration) error {
	if len(paths) == 0 {
		return nil
	}
	if filesReady(paths, minBytes) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrTransient, "", "watch", "create download watcher", err)
	}
	defer watcher.Close()

	dirs := make(map[string]struct{})
	for _, path := range paths {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return services.Wrap(services.ErrTransient, "", "watch", fmt.Sprintf("watch directory %s", dir), err)
		}
	}

	// Files may have landed between the first check and watcher setup.
	if filesReady(paths, minBytes) {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(2 * time.Second)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return services.Wrap(services.ErrTimeout, "", "download",
				fmt.Sprintf("downloads incomplete after %s: missing %s", timeout, strings.Join(missingFiles(paths, minBytes), ", ")), nil)
		case event, ok := <-watcher.Events:
			if !ok {
				return services.Wrap(services.ErrTransient, "", "watch", "download watcher closed", nil)
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if filesReady(paths, minBytes) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return services.Wrap(services.ErrTransient, "", "watch", "download watcher closed", nil)
			}
			return services.Wrap(services.ErrTransient, "", "watch", "download watcher error", err)
		case <-poll.C:
			if filesReady(paths, minBytes) {
				return nil
			}
		}
	}
}

func filesReady(paths []string, minBytes int64) bool {
	for _, path := range paths {
		if !fileReady(path, minBytes) {
			return false
		}
	}
	return true
}

func fileReady(path string, minBytes int64) bool {
	if _, partial := partialExtensions[strings.ToLower(filepath.Ext(path))]; partial {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() >= minBytes
}

func missingFiles(paths []string, minBytes int64) []string {
	var missing []string
	for _, path := range paths {
		if !fileReady(path, minBytes) {
			missing = append(missing, filepath.Base(path))
		}
	}
	return missing
}
