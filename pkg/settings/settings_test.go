package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_SettersGetters(t *testing.T) {
	s := &Settings{}

	s.SetTestbed("/labs/rack3/testbed.yaml")
	if s.DefaultTestbed != "/labs/rack3/testbed.yaml" {
		t.Errorf("SetTestbed() failed, got %q", s.DefaultTestbed)
	}

	s.SetAP("ap-main")
	if s.DefaultAP != "ap-main" {
		t.Errorf("SetAP() failed, got %q", s.DefaultAP)
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		DefaultTestbed: "/labs/rack3/testbed.yaml",
		DefaultAP:      "ap-main",
	}

	s.Clear()

	if s.DefaultTestbed != "" || s.DefaultAP != "" {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.json")

	original := &Settings{
		DefaultTestbed: "/labs/rack3/testbed.yaml",
		DefaultAP:      "ap-main",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if loaded.DefaultTestbed != original.DefaultTestbed {
		t.Errorf("DefaultTestbed mismatch: got %q, want %q", loaded.DefaultTestbed, original.DefaultTestbed)
	}
	if loaded.DefaultAP != original.DefaultAP {
		t.Errorf("DefaultAP mismatch: got %q, want %q", loaded.DefaultAP, original.DefaultAP)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	// Load from non-existent path should return empty settings
	s, err := LoadFrom("/nonexistent/path/settings.json")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil {
		t.Fatal("LoadFrom() should return non-nil Settings")
	}
	if s.DefaultTestbed != "" || s.DefaultAP != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.json")
	if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	// Path with non-existent directory
	path := filepath.Join(tmpDir, "subdir", "nested", "settings.json")

	s := &Settings{DefaultAP: "ap-main"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if path == "" {
		t.Error("DefaultSettingsPath() should not be empty")
	}
	if !filepath.IsAbs(path) && path != "conntest_settings.json" {
		t.Errorf("DefaultSettingsPath() should be absolute or fallback, got %q", path)
	}
}
