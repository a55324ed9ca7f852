package config

import (
	"path/filepath"
	"testing"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir)

	cfg := &Config{
		Directories: []Directory{{Path: "/photos", Enabled: true, Name: "Photos"}},
		ViewMode:    "list",
		SortField:   "name",
		SortOrder:   "asc",
		FilterMode:  "duplicates",
	}
	if err := loader.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded.Directories) != 1 || reloaded.Directories[0].Path != "/photos" {
		t.Fatalf("unexpected directories: %+v", reloaded.Directories)
	}
	if reloaded.ViewMode != "list" || reloaded.SortField != "name" {
		t.Fatalf("unexpected config: %+v", reloaded)
	}
}

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ViewMode != "grid" || cfg.SortField != "date" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestEnabledRootsFiltersDisabled(t *testing.T) {
	cfg := &Config{Directories: []Directory{
		{Path: "/a", Enabled: true},
		{Path: "/b", Enabled: false},
		{Path: "/c", Enabled: true},
	}}
	roots := cfg.EnabledRoots()
	if len(roots) != 2 || roots[0] != "/a" || roots[1] != "/c" {
		t.Fatalf("unexpected roots: %v", roots)
	}
}

func TestDefaultAppDataDirHonorsOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")
	t.Setenv("PHOTODUPE_APP_DATA", dir)
	if got := DefaultAppDataDir(); got != dir {
		t.Fatalf("expected override %q, got %q", dir, got)
	}
}
