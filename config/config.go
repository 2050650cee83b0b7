package config

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"miditoarduino/dumpparse"
	"miditoarduino/headerout"
)

// Config holds the converter settings. Command line flags override it.
type Config struct {
	Dir       string `yaml:"dir"`        // folder scanned for dumps, default: next to the executable
	OutputDir string `yaml:"output_dir"` // default: same as Dir
	PauseMS   int    `yaml:"pause_ms"`
	Storage   string `yaml:"storage"` // array storage annotation
	Preview   bool   `yaml:"preview"` // also write a .mid preview
	Pitches   bool   `yaml:"pitches"` // also write pitches.h
	LogLevel  string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PauseMS:  dumpparse.DefaultPauseMS,
		Storage:  headerout.DefaultStorage,
		LogLevel: "info",
	}
}

// Load reads a YAML config file. An empty path or a missing file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "bad config %s", path)
	}

	if cfg.PauseMS <= 0 {
		cfg.PauseMS = dumpparse.DefaultPauseMS
	}
	if cfg.Storage == "" {
		cfg.Storage = headerout.DefaultStorage
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
