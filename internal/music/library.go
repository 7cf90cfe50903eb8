// Package music selects a background track for a video from a local
// library organized as one subdirectory per mood category.
package music

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storyreel/internal/services"
)

// Categories the library recognizes. A story's music field must name
// one of these.
var Categories = []string{
	"ambient",
	"calm",
	"upbeat",
	"dramatic",
	"nature",
	"piano",
	"orchestral",
	"lullaby",
}

// DefaultCategory is used when a story does not name one.
const DefaultCategory = "calm"

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".wav":  {},
	".ogg":  {},
	".flac": {},
}

// Library reads tracks from a root directory laid out as
// <root>/<category>/<track>.<ext>.
type Library struct {
	root string
}

// NewLibrary points at a music root directory.
func NewLibrary(root string) *Library {
	return &Library{root: root}
}

// ValidCategory reports whether name is a known category.
func ValidCategory(name string) bool {
	for _, category := range Categories {
		if category == name {
			return true
		}
	}
	return false
}

// Tracks lists the audio files for a category in sorted order.
func (l *Library) Tracks(category string) ([]string, error) {
	if !ValidCategory(category) {
		return nil, services.Wrap(services.ErrValidation, "music", "tracks", fmt.Sprintf("unknown music category %q", category), nil)
	}
	dir := filepath.Join(l.root, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrValidation, "music", "tracks", fmt.Sprintf("read music category %s", dir), err)
	}

	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		tracks = append(tracks, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(tracks)
	return tracks, nil
}

// Select picks one track for a category, keyed by seed so the same
// story keeps the same track across resumed runs. A missing category
// directory or an empty one is not-found, not transient: retrying will
// not make tracks appear.
func (l *Library) Select(category, seed string) (string, error) {
	if category == "" {
		category = DefaultCategory
	}
	tracks, err := l.Tracks(category)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", services.Wrap(services.ErrNotFound, "music", "select", fmt.Sprintf("no tracks in category %q under %s", category, l.root), nil)
	}

	hash := fnv.New32a()
	_, _ = hash.Write([]byte(seed))
	return tracks[int(hash.Sum32())%len(tracks)], nil
}
