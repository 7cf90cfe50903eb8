// Package metadata builds the YouTube title, description, tags, and
// chapter timestamps for a finished video and persists them next to it.
package metadata

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyreel/internal/fileutil"
	"storyreel/internal/services"
	"storyreel/internal/story"
)

var titleTemplates = []string{
	"%s | A Cozy Bedtime Story",
	"%s | Animated Bedtime Story",
	"A Night in %s | Sleep Story",
	"%s | Peaceful Sleep Story",
}

var styleTags = map[string][]string{
	"ghibli":     {"ghibli style", "studio ghibli", "ghibli aesthetic", "anime style"},
	"pixar":      {"pixar style", "3d animation", "cgi animation"},
	"watercolor": {"watercolor", "hand drawn", "watercolor illustration"},
	"storybook":  {"storybook", "storybook illustration"},
}

var titleCaser = cases.Title(language.English)

// Chapter is one description timestamp entry.
type Chapter struct {
	Title  string        `json:"title"`
	Offset time.Duration `json:"offset"`
}

// Timestamp renders the offset in YouTube's M:SS or H:MM:SS form.
func (c Chapter) Timestamp() string {
	return FormatTimestamp(c.Offset)
}

// Metadata is the full upload payload persisted alongside the video.
type Metadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CategoryID  string    `json:"category_id"`
	Chapters    []Chapter `json:"chapters,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Options tunes generation beyond what the story supplies.
type Options struct {
	// SecondsPerScene spaces chapter timestamps; zero disables chapters.
	SecondsPerScene float64
	// ScenesPerChapter groups scenes into one chapter entry.
	ScenesPerChapter int
	CategoryID       string
	ChannelName      string
}

// Build derives deterministic metadata from a story. The template pick
// is keyed by the story title so re-runs reproduce identical output.
func Build(s *story.Story, opts Options) (*Metadata, error) {
	if s == nil || strings.TrimSpace(s.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, "metadata", "build", "story with a title is required", nil)
	}

	styleKey := styleKeyword(s.Style)
	meta := &Metadata{
		Title:       buildTitle(s.Title),
		Tags:        buildTags(s.Title, styleKey),
		CategoryID:  opts.CategoryID,
		Chapters:    buildChapters(s, opts),
		GeneratedAt: time.Now().UTC(),
	}
	meta.Description = buildDescription(s, styleKey, meta.Chapters, opts)
	return meta, nil
}

// Save writes the metadata JSON atomically.
func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "metadata", "save", "encode metadata", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "metadata", "save", fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// Load reads previously generated metadata.
func Load(path string) (*Metadata, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, services.Wrap(services.ErrValidation, "metadata", "load", fmt.Sprintf("parse %s", path), err)
	}
	return &meta, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "metadata", "load", fmt.Sprintf("metadata file %s does not exist", path), err)
		}
		return nil, services.Wrap(services.ErrTransient, "metadata", "load", fmt.Sprintf("read %s", path), err)
	}
	return data, nil
}

// FormatTimestamp converts a duration to M:SS, or H:MM:SS past an hour.
func FormatTimestamp(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func buildTitle(storyTitle string) string {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(storyTitle))
	template := titleTemplates[int(hash.Sum32())%len(titleTemplates)]
	title := fmt.Sprintf(template, titleCaser.String(storyTitle))
	return strings.Join(strings.Fields(title), " ")
}

func buildDescription(s *story.Story, styleKey string, chapters []Chapter, opts Options) string {
	var lines []string
	if s.Description != "" {
		lines = append(lines, s.Description)
	} else {
		lines = append(lines, fmt.Sprintf(
			"A peaceful %s bedtime story. A calming tale perfect for winding down at the end of the day.",
			styleKey))
	}
	lines = append(lines, "", "Perfect for:",
		"- Bedtime routines",
		"- Calm-down time",
		"- Quiet evenings",
		"- Family storytime",
		"")

	if len(chapters) > 0 {
		lines = append(lines, "Chapters:")
		for _, chapter := range chapters {
			lines = append(lines, fmt.Sprintf("[%s] %s", chapter.Timestamp(), chapter.Title))
		}
		lines = append(lines, "")
	}

	channel := opts.ChannelName
	if channel == "" {
		channel = "Cozy Storytime"
	}
	lines = append(lines,
		fmt.Sprintf("More from %s:", channel),
		"#bedtimestory #sleepstory #calmingstory #relaxation",
	)
	return strings.Join(lines, "\n")
}

func buildTags(storyTitle, styleKey string) []string {
	tags := []string{
		fmt.Sprintf("%s bedtime story", styleKey),
		fmt.Sprintf("%s sleep story", styleKey),
		"animated bedtime story",
		"calming bedtime story",
		"sleep story",
		"peaceful bedtime story",
		"relaxing narration",
		"soothing music",
		"family storytime",
	}
	tags = append(tags, styleTags[styleKey]...)
	tags = append(tags, fmt.Sprintf("%s story", storyTitle))

	seen := make(map[string]struct{}, len(tags))
	unique := tags[:0]
	for _, tag := range tags {
		lowered := strings.ToLower(tag)
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}
		unique = append(unique, tag)
	}
	return unique
}

func buildChapters(s *story.Story, opts Options) []Chapter {
	if opts.SecondsPerScene <= 0 || len(s.Scenes) == 0 {
		return nil
	}
	perChapter := opts.ScenesPerChapter
	if perChapter <= 0 {
		perChapter = 15
	}

	var chapters []Chapter
	for start := 0; start < len(s.Scenes); start += perChapter {
		offset := time.Duration(float64(start) * opts.SecondsPerScene * float64(time.Second))
		chapters = append(chapters, Chapter{
			Title:  fmt.Sprintf("Part %d", len(chapters)+1),
			Offset: offset,
		})
	}
	return chapters
}

// styleKeyword reduces a free-form style string to a tag key, e.g.
// "Studio Ghibli style" to "ghibli".
func styleKeyword(style string) string {
	lowered := strings.ToLower(style)
	for key := range styleTags {
		if strings.Contains(lowered, key) {
			return key
		}
	}
	if lowered == "" {
		return "animated"
	}
	return strings.TrimSuffix(strings.TrimSpace(lowered), " style")
}
