package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"PickTracker/internal/model"
)

// ErrMalformed marks a ledger file that cannot be accepted. Load is
// fail-fast: a single bad record rejects the whole file rather than feeding
// a partial ledger into settlement.
var ErrMalformed = errors.New("malformed ledger")

// Load reads the pick ledger from path, preserving file order. A missing
// file is an empty ledger (first run).
func Load(path string) ([]model.Pick, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var picks []model.Pick
	if err := json.Unmarshal(data, &picks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i := range picks {
		if err := picks[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
	}
	return picks, nil
}

// Save writes the ledger atomically: the full content is materialized to a
// temp file in the same directory, synced, and renamed over the canonical
// name. A crash mid-write never leaves a truncated ledger behind.
func Save(path string, picks []model.Pick) error {
	if picks == nil {
		picks = []model.Pick{}
	}
	data, err := json.MarshalIndent(picks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	tmp = nil
	return nil
}
