package cli

import (
	"path/filepath"
	"testing"
)

func TestCacheDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if filepath.Base(dir) != appName {
		t.Errorf("cache dir = %q, want a %q directory", dir, appName)
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-08-29")
	defer SetVersion("", "", "")

	if version != "v1.2.3" || commit != "abc123" || date != "2026-08-29" {
		t.Errorf("version info not stored: %s %s %s", version, commit, date)
	}
}
