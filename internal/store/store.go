// Package store persists client-side state under the NexaPDF state
// directory: auth tokens, session-scoped guest bookkeeping, and UI
// preferences. Each concern lives in its own small JSON file so logout can
// clear the session wholesale without touching preferences.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDir returns the state directory, honoring NEXA_STATE_DIR and
// falling back to ~/.nexa.
func DefaultDir() (string, error) {
	if dir := os.Getenv("NEXA_STATE_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".nexa"), nil
}

// readJSON loads path into out. A missing file is not an error; out is left
// at its zero value and ok is false.
func readJSON(path string, out any) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt state file is treated as absent rather than fatal.
		return false, nil
	}
	return true, nil
}

// writeJSON writes v to path with mode 0600, creating the directory first.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// removeFile deletes path, ignoring a missing file.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
