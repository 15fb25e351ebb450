package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hemmendinger/dp2j/internal/plan"
)

// Mapping is the record of one import written next to the plan: which issue
// key each plan node became.
type Mapping struct {
	BatchID   string       `json:"batchId"`
	CreatedAt time.Time    `json:"createdAt"`
	FilePath  string       `json:"filePath"`
	Issues    *plan.KeyMap `json:"issues"`
}

// SaveMapping writes m to path as indented JSON, replacing any existing file.
func SaveMapping(path string, m Mapping) error {
	if m.Issues == nil {
		m.Issues = plan.NewKeyMap()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing mapping: %w", err)
	}
	return nil
}

// LoadMapping reads a mapping file written by SaveMapping.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping: %w", err)
	}
	m := &Mapping{Issues: plan.NewKeyMap()}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing mapping %s: %w", path, err)
	}
	return m, nil
}
