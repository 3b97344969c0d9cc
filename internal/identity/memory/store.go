package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// account is the persisted form of a provider account.
type account struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// snapshotStore persists the account table as a single JSON document on an
// afero filesystem. An empty path disables persistence.
type snapshotStore struct {
	fs   afero.Fs
	path string
}

func newSnapshotStore(fs afero.Fs, path string) *snapshotStore {
	return &snapshotStore{fs: fs, path: path}
}

func (s *snapshotStore) enabled() bool {
	return s.fs != nil && s.path != ""
}

// Load reads the snapshot. A missing file is an empty table.
func (s *snapshotStore) Load() ([]account, error) {
	if !s.enabled() {
		return nil, nil
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read account snapshot: %w", err)
	}
	var accounts []account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode account snapshot: %w", err)
	}
	return accounts, nil
}

// Save replaces the snapshot with accounts.
func (s *snapshotStore) Save(accounts []account) error {
	if !s.enabled() {
		return nil
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write account snapshot: %w", err)
	}
	return s.fs.Rename(tmp, s.path)
}
