// Package deviceid manages the opaque per-installation identifier used to
// tag uploads and name conflict copies.
package deviceid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const filePermissions = 0o600
const dirPermissions = 0o700

// Load reads the device id persisted at path, generating and persisting a
// new one on first run. The returned id is stable across restarts as long
// as path is preserved.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("deviceid: reading %s: %w", path, err)
	}

	id := uuid.New().String()
	if err := persist(path, id); err != nil {
		return "", err
	}

	return id, nil
}

func persist(path, id string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("deviceid: creating directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".deviceid-*.tmp")
	if err != nil {
		return fmt.Errorf("deviceid: creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.WriteString(id); err != nil {
		f.Close()
		return fmt.Errorf("deviceid: writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("deviceid: syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("deviceid: closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, filePermissions); err != nil {
		return fmt.Errorf("deviceid: setting permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("deviceid: renaming into place: %w", err)
	}

	succeeded = true

	return nil
}
