package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/occlusionlab/occlude/pkg/editor"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/store"
)

// Config is the on-disk CLI configuration, read from
// ~/.config/occlude/config.toml (or the --config override). Every field has
// a working default, so a missing file is not an error.
type Config struct {
	Vault  VaultConfig  `toml:"vault"`
	Store  StoreConfig  `toml:"store"`
	Editor EditorConfig `toml:"editor"`
	Render RenderConfig `toml:"render"`
}

// VaultConfig locates the notes vault that image references resolve against.
type VaultConfig struct {
	Root string `toml:"root"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is one of "file", "redis", "mongo", or "memory".
	Backend string `toml:"backend"`

	// Path is the deck file location for the file backend.
	Path string `toml:"path"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig mirrors store.RedisConfig for TOML decoding.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig mirrors store.MongoConfig for TOML decoding.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// EditorConfig tunes the interactive session.
type EditorConfig struct {
	MinDrawPx       float64 `toml:"min_draw_px"`
	NudgeStep       float64 `toml:"nudge_step"`
	CoarseNudgeStep float64 `toml:"coarse_nudge_step"`
	MinScale        float64 `toml:"min_scale"`
	MaxScale        float64 `toml:"max_scale"`
}

// RenderConfig tunes mask export.
type RenderConfig struct {
	// Labels draws group labels on exported masks.
	Labels bool `toml:"labels"`

	// Workers bounds render parallelism. Zero means a small default.
	Workers int `toml:"workers"`

	// TargetColor and NeutralColor override the default mask colors
	// (hex, e.g. "#ffeba2").
	TargetColor  string `toml:"target_color"`
	NeutralColor string `toml:"neutral_color"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Vault: VaultConfig{Root: "."},
		Store: StoreConfig{Backend: "file"},
		Editor: EditorConfig{
			MinDrawPx:       editor.DefaultMinDrawPx,
			NudgeStep:       editor.DefaultNudgeStep,
			CoarseNudgeStep: editor.DefaultCoarseNudgeStep,
			MinScale:        editor.DefaultMinScale,
			MaxScale:        editor.DefaultMaxScale,
		},
		Render: RenderConfig{Workers: 4},
	}
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields the defaults; a malformed file is an
// error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s", path)
	}
	return cfg, applyConfigDefaults(&cfg)
}

// applyConfigDefaults fills zero values left by a partial config file and
// rejects settings that cannot work.
func applyConfigDefaults(cfg *Config) error {
	d := defaultConfig()
	if cfg.Vault.Root == "" {
		cfg.Vault.Root = d.Vault.Root
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = d.Store.Backend
	}
	if cfg.Editor.MinDrawPx <= 0 {
		cfg.Editor.MinDrawPx = d.Editor.MinDrawPx
	}
	if cfg.Editor.NudgeStep <= 0 {
		cfg.Editor.NudgeStep = d.Editor.NudgeStep
	}
	if cfg.Editor.CoarseNudgeStep <= 0 {
		cfg.Editor.CoarseNudgeStep = d.Editor.CoarseNudgeStep
	}
	if cfg.Editor.MinScale <= 0 {
		cfg.Editor.MinScale = d.Editor.MinScale
	}
	if cfg.Editor.MaxScale <= cfg.Editor.MinScale {
		cfg.Editor.MaxScale = d.Editor.MaxScale
	}
	if cfg.Render.Workers <= 0 {
		cfg.Render.Workers = d.Render.Workers
	}

	switch cfg.Store.Backend {
	case "file", "memory":
	case "redis":
		if cfg.Store.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.redis.addr is required for the redis backend")
		}
	case "mongo":
		if cfg.Store.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo.uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Store.Backend)
	}
	return nil
}

// openStore builds the configured persistence backend.
func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "redis":
		return store.NewRedis(ctx, store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		})
	case "mongo":
		return store.NewMongo(ctx, store.MongoConfig{
			URI:      cfg.Store.Mongo.URI,
			Database: cfg.Store.Mongo.Database,
		})
	default:
		path := cfg.Store.Path
		if path == "" {
			dir, err := dataDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "deck.json")
		}
		return store.NewFile(path)
	}
}

// configDir returns the config directory using XDG standard
// (~/.config/occlude/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// dataDir returns the data directory using XDG standard
// (~/.local/share/occlude/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// sessionOptions translates editor config into session options.
func sessionOptions(cfg Config) []editor.Option {
	return []editor.Option{
		editor.WithMinDrawPx(cfg.Editor.MinDrawPx),
		editor.WithNudgeSteps(cfg.Editor.NudgeStep, cfg.Editor.CoarseNudgeStep),
		editor.WithZoomBounds(cfg.Editor.MinScale, cfg.Editor.MaxScale),
	}
}
