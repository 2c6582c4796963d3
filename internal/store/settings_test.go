package store

import (
	"path/filepath"
	"testing"
)

func newTestSettings(t *testing.T) *Settings {
	t.Helper()

	settings, err := OpenSettings(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("OpenSettings() error = %v", err)
	}
	t.Cleanup(func() { _ = settings.Close() })
	return settings
}

func TestSettings_ReadUnsetKey(t *testing.T) {
	settings := newTestSettings(t)

	value, err := settings.Read("token")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != "" {
		t.Errorf("Read() on an unset key = %q, expected empty", value)
	}
}

func TestSettings_SetAndRead(t *testing.T) {
	settings := newTestSettings(t)

	if err := settings.Set("token", "abc123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := settings.Read("token")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != "abc123" {
		t.Errorf("Read() = %q, expected abc123", value)
	}
}

func TestSettings_SetOverwrites(t *testing.T) {
	settings := newTestSettings(t)

	if err := settings.Set("token", "first"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := settings.Set("token", "second"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := settings.Read("token")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != "second" {
		t.Errorf("Read() = %q, expected the overwritten value", value)
	}
}

func TestSettings_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	settings, err := OpenSettings(path)
	if err != nil {
		t.Fatalf("OpenSettings() error = %v", err)
	}
	if err := settings.Set("token", "persisted"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := settings.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenSettings(path)
	if err != nil {
		t.Fatalf("OpenSettings() after close error = %v", err)
	}
	defer reopened.Close()

	value, err := reopened.Read("token")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != "persisted" {
		t.Errorf("Read() after reopen = %q, expected persisted", value)
	}
}
