// Package scrapelog owns the per-day scrape log: append-only snapshots of the
// relay board, incremental dedup against the previous snapshot, and the
// merged corpus handed to analysis.
package scrapelog

import (
	"sort"
	"time"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/dayfile"
)

// Post is one board posting as scraped. Identity is ID when non-empty; posts
// with an empty ID never dedup against each other.
type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Timestamp   string `json:"timestamp"`
	CollectedAt string `json:"collected_at,omitempty"`
}

// Snapshot is one scrape invocation's record inside a day file. Immutable
// once appended.
type Snapshot struct {
	CollectedAt  string `json:"collected_at"`
	PostCount    int    `json:"post_count"`
	RawPostCount int    `json:"raw_post_count,omitempty"`
	Posts        []Post `json:"posts"`
}

// Store reads and appends the per-day log files under Dir.
type Store struct {
	Dir string
	Now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, Now: utils.NowKST}
}

type taggedSnapshot struct {
	at   time.Time
	snap Snapshot
}

// loadWindow flattens the snapshots of today's and yesterday's files.
// A 24h-old snapshot may sit on the previous calendar date, hence the 2-day
// lookback. Entries whose collected_at does not parse are skipped.
func (s *Store) loadWindow() ([]taggedSnapshot, error) {
	now := s.Now()
	var out []taggedSnapshot

	for i := 0; i < 2; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		snaps, err := dayfile.Read[Snapshot](s.Dir, date)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			at, err := time.Parse(time.RFC3339, snap.CollectedAt)
			if err != nil {
				utils.Log.Debugf("skipping log entry with bad collected_at %q", snap.CollectedAt)
				continue
			}
			out = append(out, taggedSnapshot{at: at, snap: snap})
		}
	}
	return out, nil
}

// LatestSnapshot returns the snapshot with the maximum collected_at across
// the 2-day window, or nil when the log is empty.
func (s *Store) LatestSnapshot() (*Snapshot, error) {
	snaps, err := s.loadWindow()
	if err != nil {
		return nil, err
	}

	var latest *taggedSnapshot
	for i := range snaps {
		if latest == nil || snaps[i].at.After(latest.at) {
			latest = &snaps[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	snap := latest.snap
	return &snap, nil
}

// NewPosts keeps the raw posts not present in the latest snapshot. Dedup is
// against that single snapshot only, so each appended snapshot stores just
// the increment. Order is preserved.
func NewPosts(raw []Post, latest *Snapshot) []Post {
	if latest == nil {
		return raw
	}

	seen := make(map[string]struct{}, len(latest.Posts))
	for _, p := range latest.Posts {
		if p.ID != "" {
			seen[p.ID] = struct{}{}
		}
	}

	var fresh []Post
	for _, p := range raw {
		if p.ID == "" {
			fresh = append(fresh, p)
			continue
		}
		if _, ok := seen[p.ID]; !ok {
			fresh = append(fresh, p)
		}
	}
	return fresh
}

// AppendSnapshot appends one snapshot to today's file and returns its path.
func (s *Store) AppendSnapshot(posts []Post, rawCount int) (string, error) {
	now := s.Now()
	entry := Snapshot{
		CollectedAt:  now.Format(time.RFC3339),
		PostCount:    len(posts),
		RawPostCount: rawCount,
		Posts:        posts,
	}
	return dayfile.Append(s.Dir, now.Format("2006-01-02"), entry)
}

// AggregateRecent merges the posts of the last `window` snapshots into one
// corpus deduplicated by non-empty id, first occurrence wins. The window is
// clamped to the available snapshots and never below 1.
func (s *Store) AggregateRecent(window int) ([]Post, error) {
	snaps, err := s.loadWindow()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].at.Before(snaps[j].at) })

	if window < 1 {
		window = 1
	}
	if window > len(snaps) {
		window = len(snaps)
	}
	return mergePosts(snaps[len(snaps)-window:]), nil
}

// AggregateSince is the wall-clock variant: it merges every snapshot
// collected within the trailing horizon instead of counting snapshots.
func (s *Store) AggregateSince(horizon time.Duration) ([]Post, error) {
	snaps, err := s.loadWindow()
	if err != nil {
		return nil, err
	}

	cutoff := s.Now().Add(-horizon)
	var recent []taggedSnapshot
	for _, ts := range snaps {
		if !ts.at.Before(cutoff) {
			recent = append(recent, ts)
		}
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].at.Before(recent[j].at) })
	return mergePosts(recent), nil
}

func mergePosts(snaps []taggedSnapshot) []Post {
	var all []Post
	for _, ts := range snaps {
		for _, p := range ts.snap.Posts {
			p.CollectedAt = ts.snap.CollectedAt
			all = append(all, p)
		}
	}

	seen := make(map[string]struct{})
	var unique []Post
	for _, p := range all {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}
		unique = append(unique, p)
	}
	return unique
}
