// Package store implements the atomic JSON state store shared by every
// router component that persists to disk: ledger, failure tracker,
// provider registry, and switcher state.
//
// DESIGN: every file under the data directory has exactly one writer.
// Writes go to a temp file beside the destination and are renamed into
// place, so a concurrent reader always observes either the previous
// complete document or the new one, never a partial write. Missing or
// corrupt files read back as nil rather than erroring — callers treat
// that as "no state yet" and build a fresh default.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ReadJSON reads and decodes the JSON document at path into a freshly
// allocated value of type T. A missing file or one that fails to parse
// returns a nil pointer and no error — callers construct a default in
// that case rather than treating it as fatal.
func ReadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("store: corrupt state file, treating as missing")
		return nil, nil
	}
	return &v, nil
}

// WriteJSON marshals v as pretty-printed JSON and writes it to path via a
// temp-file-rename, creating any missing parent directories first.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("store: mkdir for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal for %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("store: write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: rename into %s: %w", path, err)
	}
	return nil
}

// Delete removes the file at path. A missing file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
