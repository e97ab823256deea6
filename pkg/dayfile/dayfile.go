// Package dayfile implements the flat per-day JSON array files used by the
// scrape log and the analysis history. Every write rewrites the whole file;
// the read contract is "array of entries, latest = last".
package dayfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Path returns the file path for a YYYY-MM-DD date string.
func Path(dir, date string) string {
	return filepath.Join(dir, date+".json")
}

// Read loads all entries for the given date. A missing file is not an error
// and yields a nil slice.
func Read[T any](dir, date string) ([]T, error) {
	data, err := os.ReadFile(Path(dir, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []T
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Path(dir, date), err)
	}
	return entries, nil
}

// Append performs the read-modify-write cycle: load the day's entries, append
// one, write the whole array back. Returns the file path written.
func Append[T any](dir, date string, entry T) (string, error) {
	entries, err := Read[T](dir, date)
	if err != nil {
		return "", err
	}
	entries = append(entries, entry)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", err
	}

	path := Path(dir, date)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
