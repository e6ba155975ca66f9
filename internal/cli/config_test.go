package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/occlusionlab/occlude/pkg/errors"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "file" || cfg.Vault.Root != "." {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Editor.MinDrawPx != 8 || cfg.Editor.CoarseNudgeStep != 10 {
		t.Errorf("editor defaults = %+v", cfg.Editor)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[vault]
root = "/notes"

[editor]
min_draw_px = 12.0

[store]
backend = "redis"

[store.redis]
addr = "localhost:6379"
prefix = "anatomy"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault.Root != "/notes" {
		t.Errorf("vault root = %q", cfg.Vault.Root)
	}
	if cfg.Editor.MinDrawPx != 12 {
		t.Errorf("min draw = %v", cfg.Editor.MinDrawPx)
	}
	// Unset fields keep their defaults.
	if cfg.Editor.NudgeStep != 1 || cfg.Editor.MaxScale != 8 {
		t.Errorf("editor defaults not filled: %+v", cfg.Editor)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Redis.Prefix != "anatomy" {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"sqlite\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(path)
	if errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfigRedisNeedsAddr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"redis\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(path)
	if errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("vault = {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}
