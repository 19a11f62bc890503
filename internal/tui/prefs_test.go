package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPrefs(t *testing.T) {
	prefs := DefaultPrefs()
	if prefs.ShowCharts {
		t.Error("charts should be off by default")
	}
	if prefs.ExportDir != "" {
		t.Error("export dir should default to the working directory")
	}
}

func TestLoadPrefs_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if LoadPrefs() != DefaultPrefs() {
		t.Error("LoadPrefs() with no file should return defaults")
	}
}

func TestSaveAndLoadPrefs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	prefs := Prefs{ShowCharts: true, ExportDir: "/tmp/out"}
	if err := SavePrefs(prefs); err != nil {
		t.Fatalf("SavePrefs failed: %v", err)
	}

	prefsFile := filepath.Join(tmpDir, ".colsense", "tui_prefs.json")
	if _, err := os.Stat(prefsFile); os.IsNotExist(err) {
		t.Fatal("prefs file was not created")
	}

	if loaded := LoadPrefs(); loaded != prefs {
		t.Errorf("loaded %+v, want %+v", loaded, prefs)
	}
}

func TestLoadPrefs_Corrupt(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	if err := os.MkdirAll(filepath.Join(tmpDir, ".colsense"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".colsense", "tui_prefs.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if LoadPrefs() != DefaultPrefs() {
		t.Error("corrupt prefs should fall back to defaults")
	}
}
