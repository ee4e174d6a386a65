// Package settings manages persistent user settings for the wrtap CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// DefaultTestbed is the testbed file to use when --testbed is not specified
	DefaultTestbed string `json:"default_testbed,omitempty"`

	// DefaultAP is the access point name to use when --ap is not specified
	DefaultAP string `json:"default_ap,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "conntest_settings.json"
	}
	return filepath.Join(home, ".conntest", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetTestbed sets the default testbed file
func (s *Settings) SetTestbed(path string) {
	s.DefaultTestbed = path
}

// SetAP sets the default access point name
func (s *Settings) SetAP(name string) {
	s.DefaultAP = name
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
