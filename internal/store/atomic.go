// Package store persists scout state as JSON files under a single data
// directory. Every store type guards its file with a sync.RWMutex and writes
// atomically: marshal-indent to a sibling .tmp file, then rename over the
// target. A missing file reads as empty state; a corrupt file surfaces as a
// storage error, never as silent data loss.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// readJSON loads path into out. Returns (false, nil) when the file does not
// exist, leaving out untouched.
func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.StorageError("read "+filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.StorageError("decode "+filepath.Base(path), err).
			WithContext("path", path)
	}
	return true, nil
}

// writeJSON atomically replaces path with the indented JSON encoding of v.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.StorageError("create data directory", err).WithContext("path", path)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.StorageError("encode "+filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.StorageError("write "+filepath.Base(path), err).WithContext("path", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.StorageError("replace "+filepath.Base(path), err).WithContext("path", path)
	}
	return nil
}
