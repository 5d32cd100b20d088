package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying settings
func createBackup(path string) error {
	// Check if file exists before backing up
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := path + ".back3"
	back2 := path + ".back2"
	back1 := path + ".back1"

	// Delete oldest backup if exists
	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Deletion failures shouldn't block the save
		logger.Warnw("Failed to delete old settings backup", "path", back3, "error", err)
	}

	// Rotate .back2 to .back3
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	// Rotate .back1 to .back2
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	// Copy current to .back1
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read settings for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// SaveSettings writes host settings to ~/.cadence/settings.toml with backup rotation.
func SaveSettings(settings *Settings) error {
	return SaveSettingsTo(settings, GetSettingsPath())
}

// SaveSettingsTo writes host settings to an explicit path with backup rotation.
func SaveSettingsTo(settings *Settings, path string) error {
	if path == "" {
		return errors.New("could not determine settings path")
	}

	// Ensure the parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "failed to create settings directory")
	}

	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write settings")
	}

	return nil
}
