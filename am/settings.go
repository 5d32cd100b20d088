package am

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/teranos/cadence/errors"
)

// Settings holds the host-side state that survives between runs: which
// document was loaded, which sequences the user selected, and whether the
// runner was live when the host last exited. The engine itself never reads
// these; the CLI passes them in as load and start calls.
type Settings struct {
	// DocumentPath is the last-used sequence document path
	DocumentPath string `toml:"document_path"`

	// SelectedSequences are the sequence names the user chose to run
	SelectedSequences []string `toml:"selected_sequences"`

	// ToggleKey is the hotkey identifier a host UI may bind; cadence only
	// stores it for such hosts, it captures nothing itself
	ToggleKey string `toml:"toggle_key"`

	// WasRunning records whether sequences were live at last shutdown
	WasRunning bool `toml:"was_running"`
}

// DefaultSettings returns settings for a fresh install.
func DefaultSettings() *Settings {
	return &Settings{
		ToggleKey: "f8",
	}
}

// GetSettingsPath returns the path to the settings file in ~/.cadence/settings.toml
func GetSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cadence", "settings.toml")
}

// LoadSettings reads host settings from ~/.cadence/settings.toml.
// A missing file is not an error; defaults are returned.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom reads host settings from an explicit path.
func LoadSettingsFrom(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New("could not determine settings path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, errors.Wrap(err, "failed to read settings")
	}

	settings := DefaultSettings()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, errors.Wrap(err, "failed to parse settings")
	}

	return settings, nil
}
