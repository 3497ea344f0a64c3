package store

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

const apiKeyFileName = ".api-key"

// LoadOrCreateAPIKey returns the serve-mode API key, generating one on first
// use. The key file is written 0600; generated reports whether a new key was
// created so the caller can log it exactly once.
func LoadOrCreateAPIKey(dataDir string) (key string, generated bool, err error) {
	path := filepath.Join(dataDir, apiKeyFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		key = strings.TrimSpace(string(data))
		if key != "" {
			return key, false, nil
		}
	} else if !os.IsNotExist(err) {
		return "", false, errors.StorageError("read api key", err).WithContext("path", path)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", false, errors.InternalError("generate api key", err)
	}
	key = hex.EncodeToString(raw)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", false, errors.StorageError("create data directory", err).WithContext("path", dataDir)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", false, errors.StorageError("write api key", err).WithContext("path", path)
	}
	return key, true, nil
}
