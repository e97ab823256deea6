// Package analysis drives the multi-model trend analysis over the aggregated
// post corpus and owns the per-day analysis history.
package analysis

import (
	"time"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/dayfile"
)

// ErrorModel is the sentinel model identifier used when the pipeline itself
// failed. It lets error messages ride the same shape as real results, so the
// notifier needs no special case.
const ErrorModel = "error"

// ModelResult is one model's analysis text.
type ModelResult struct {
	Model    string `json:"model"`
	Analysis string `json:"analysis"`
}

func errorResult(message string) []ModelResult {
	return []ModelResult{{Model: ErrorModel, Analysis: message}}
}

// Entry is one analysis run inside a day file.
type Entry struct {
	AnalyzedAt string        `json:"analyzed_at"`
	PostCount  int           `json:"post_count"`
	Results    []ModelResult `json:"results"`

	// Pre-comparison files stored a single result inline. Read-only; the
	// store normalizes them into Results on load.
	LegacyModel    string `json:"model,omitempty"`
	LegacyAnalysis string `json:"analysis,omitempty"`
}

// Store reads and appends the per-day analysis files under Dir.
type Store struct {
	Dir string
	Now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, Now: utils.NowKST}
}

// Append records one analysis run in today's file and returns its path.
func (s *Store) Append(results []ModelResult, postCount int) (string, error) {
	now := s.Now()
	entry := Entry{
		AnalyzedAt: now.Format(time.RFC3339),
		PostCount:  postCount,
		Results:    results,
	}
	return dayfile.Append(s.Dir, now.Format("2006-01-02"), entry)
}

// Latest returns the last entry of today's file, or nil when there is none.
// Legacy single-result entries come back with a one-element Results slice.
func (s *Store) Latest() (*Entry, error) {
	entries, err := dayfile.Read[Entry](s.Dir, s.Now().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	entry := entries[len(entries)-1]
	if len(entry.Results) == 0 && entry.LegacyAnalysis != "" {
		model := entry.LegacyModel
		if model == "" {
			model = "unknown"
		}
		entry.Results = []ModelResult{{Model: model, Analysis: entry.LegacyAnalysis}}
	}
	return &entry, nil
}
