// Package schedule computes the next available YouTube publish slot
// and keeps a local history of slots already booked, so consecutive
// uploads never collide even after the platform stops reporting
// published videos as scheduled.
package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"storyreel/internal/fileutil"
	"storyreel/internal/services"
)

// Entry records one booked publish slot.
type Entry struct {
	Date       time.Time `json:"date"`
	VideoID    string    `json:"video_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type state struct {
	History []Entry `json:"scheduled_history"`
}

// Tracker persists booked slots in a JSON file. One video per day at a
// fixed UTC publish hour.
type Tracker struct {
	path        string
	publishHour int

	// Now is replaceable for tests.
	Now func() time.Time
}

// NewTracker builds a tracker over a state file path. publishHour is
// the daily UTC hour videos go live.
func NewTracker(path string, publishHour int) *Tracker {
	return &Tracker{path: path, publishHour: publishHour, Now: time.Now}
}

// Next returns the earliest free publish slot: the first day at the
// publish hour that is in the future and not already booked.
func (t *Tracker) Next() (time.Time, error) {
	booked, err := t.bookedDays()
	if err != nil {
		return time.Time{}, err
	}

	now := t.Now().UTC()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.publishHour, 0, 0, 0, time.UTC)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for {
		if _, taken := booked[candidate.Format("2006-01-02")]; !taken {
			return candidate, nil
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
}

// Record books a slot after a successful upload.
func (t *Tracker) Record(slot time.Time, videoID, title string) error {
	current, err := t.load()
	if err != nil {
		return err
	}
	current.History = append(current.History, Entry{
		Date:       slot.UTC(),
		VideoID:    videoID,
		Title:      title,
		RecordedAt: t.Now().UTC(),
	})
	return t.save(current)
}

// History returns booked entries, oldest first.
func (t *Tracker) History() ([]Entry, error) {
	current, err := t.load()
	if err != nil {
		return nil, err
	}
	entries := append([]Entry(nil), current.History...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

func (t *Tracker) bookedDays() (map[string]struct{}, error) {
	current, err := t.load()
	if err != nil {
		return nil, err
	}
	days := make(map[string]struct{}, len(current.History))
	for _, entry := range current.History {
		days[entry.Date.UTC().Format("2006-01-02")] = struct{}{}
	}
	return days, nil
}

func (t *Tracker) load() (state, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state{}, nil
		}
		return state{}, services.Wrap(services.ErrTransient, "schedule", "load", fmt.Sprintf("read %s", t.path), err)
	}
	var current state
	if err := json.Unmarshal(data, &current); err != nil {
		return state{}, services.Wrap(services.ErrValidation, "schedule", "load", fmt.Sprintf("parse %s", t.path), err)
	}
	return current, nil
}

func (t *Tracker) save(current state) error {
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "schedule", "save", "encode tracker state", err)
	}
	if err := fileutil.WriteFileAtomic(t.path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "schedule", "save", fmt.Sprintf("write %s", t.path), err)
	}
	return nil
}
