// Package config loads the CLI's settings from built-in defaults, an
// optional .lexrc.yaml file, and environment variables, in that increasing
// order of precedence (flags, applied by the caller, override all three).
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lexlang/lex/internal/errs"
)

// Config holds the settings that govern how lex parses and caches documents.
type Config struct {
	// IndentStep is the column width of one indentation step. Default 4.
	IndentStep int `yaml:"indent_step"`
	// TabWidth is the column width a tab character is treated as equal to. Default 4.
	TabWidth int `yaml:"tab_width"`
	// CacheDir is where internal/store persists compressed parse-cache blobs.
	CacheDir string `yaml:"cache_dir"`
	// DefaultTransform is the transform `lex inspect` uses when none is given.
	DefaultTransform string `yaml:"default_transform"`
}

// Default returns the built-in configuration lex falls back to when no
// .lexrc.yaml is present and no environment variables are set.
func Default() Config {
	return Config{
		IndentStep:       4,
		TabWidth:         4,
		CacheDir:         defaultCacheDir(),
		DefaultTransform: "ast-json",
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/lex"
	}
	return ".lex-cache"
}

// Load resolves a Config by layering, from lowest to highest precedence:
// the built-in default, an optional YAML file at path (skipped silently
// if it does not exist), then LEX_* environment variables. Flags are the
// caller's responsibility to apply last, over the result of Load.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, &errs.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
			}
		case os.IsNotExist(err):
			// No file: the built-in default stands.
		default:
			return Config{}, errs.NewIO("read", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides cfg's fields with any LEX_* environment variables
// that are set, taking precedence over both the default and the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LEX_INDENT_STEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IndentStep = n
		}
	}
	if v := os.Getenv("LEX_TAB_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TabWidth = n
		}
	}
	if v := os.Getenv("LEX_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("LEX_DEFAULT_TRANSFORM"); v != "" {
		cfg.DefaultTransform = v
	}
}
