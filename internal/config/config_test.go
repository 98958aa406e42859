package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 37710 {
		t.Errorf("port = %d, want 37710", cfg.Server.Port)
	}
	if cfg.Storage.Tier1MaxFileMB != 100 || cfg.Storage.Tier2MaxFileMB != 50 {
		t.Errorf("file ceilings = %d/%d, want 100/50", cfg.Storage.Tier1MaxFileMB, cfg.Storage.Tier2MaxFileMB)
	}
	if cfg.Storage.IndexFile != "digests.db" {
		t.Errorf("index file = %q, want digests.db", cfg.Storage.IndexFile)
	}
	if cfg.Archive.MaxAgeDays != 30 {
		t.Errorf("max age = %d, want 30", cfg.Archive.MaxAgeDays)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if cfg.Server.Port != 37710 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  bind: 0.0.0.0
  port: 9000
storage:
  root: /var/lib/engram
  tier1_max_file_mb: 10
archive:
  max_age_days: 7
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Bind != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.Root != "/var/lib/engram" {
		t.Errorf("root = %q", cfg.Storage.Root)
	}
	if cfg.Storage.Tier1MaxFileMB != 10 {
		t.Errorf("tier1 ceiling = %d, want 10", cfg.Storage.Tier1MaxFileMB)
	}
	// Untouched keys keep defaults.
	if cfg.Storage.Tier2MaxFileMB != 50 {
		t.Errorf("tier2 ceiling = %d, want 50", cfg.Storage.Tier2MaxFileMB)
	}
	if cfg.Archive.MaxAgeDays != 7 {
		t.Errorf("max age = %d, want 7", cfg.Archive.MaxAgeDays)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("ENGRAM_TEST_ROOT", "/srv/engram")
	path := writeConfig(t, "storage:\n  root: ${ENGRAM_TEST_ROOT}/data\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Root != "/srv/engram/data" {
		t.Errorf("root = %q, want /srv/engram/data", cfg.Storage.Root)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 99999\n")
	if _, err := Load(path); err == nil {
		t.Error("Load accepted out-of-range port")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping\n")
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed yaml")
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:37710" {
		t.Errorf("ListenAddr = %q", got)
	}
}
