// Package history records which plan files have been imported so a second
// import of the same plan can be caught before it duplicates issues.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// DefaultFile is the history file name at the project root.
const DefaultFile = ".jira-import-history.json"

// Entry is one recorded import.
type Entry struct {
	EpicKey    string    `json:"epicKey"`
	ImportDate time.Time `json:"importDate"`
	BatchID    string    `json:"batchId"`
	IssueCount int       `json:"issueCount"`
}

// Record pairs an entry with the plan path it is keyed by.
type Record struct {
	PlanPath string `json:"planPath"`
	Entry
}

// Store reads and writes a history file. Writes take a file lock on
// path+".lock" so concurrent imports do not lose each other's entries.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns all entries keyed by plan path. A missing or unreadable file
// is an empty history.
func (s *Store) Load() map[string]Entry {
	entries := make(map[string]Entry)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return make(map[string]Entry)
	}
	return entries
}

// Get returns the entry for planPath, if any.
func (s *Store) Get(planPath string) (Entry, bool) {
	e, ok := s.Load()[planPath]
	return e, ok
}

// List returns every entry, newest import first.
func (s *Store) List() []Record {
	entries := s.Load()
	records := make([]Record, 0, len(entries))
	for path, e := range entries {
		records = append(records, Record{PlanPath: path, Entry: e})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ImportDate.Equal(records[j].ImportDate) {
			return records[i].PlanPath < records[j].PlanPath
		}
		return records[i].ImportDate.After(records[j].ImportDate)
	})
	return records
}

// FindBatch returns the record whose batch id matches.
func (s *Store) FindBatch(batchID string) (Record, bool) {
	for _, r := range s.List() {
		if r.BatchID == batchID {
			return r, true
		}
	}
	return Record{}, false
}

// Put records entry for planPath, replacing any previous entry.
func (s *Store) Put(planPath string, entry Entry) error {
	return s.update(func(entries map[string]Entry) {
		entries[planPath] = entry
	})
}

// ForgetBatch removes every entry created by batchID and reports how many
// were removed.
func (s *Store) ForgetBatch(batchID string) (int, error) {
	removed := 0
	err := s.update(func(entries map[string]Entry) {
		for path, e := range entries {
			if e.BatchID == batchID {
				delete(entries, path)
				removed++
			}
		}
	})
	return removed, err
}

func (s *Store) update(mutate func(map[string]Entry)) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating history dir: %w", err)
		}
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking history: %w", err)
	}
	defer lock.Unlock()

	entries := s.Load()
	mutate(entries)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}
