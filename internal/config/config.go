// Package config loads the vfsctl configuration.
//
// Configuration is read from a JSONC (HuJSON) file, then overridden by command line flags
// and validated with struct tags.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// FileName is the name of the project config file looked up in the working directory.
const FileName = ".vfsctl.json"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config")
)

type Config struct {
	// Root is the host directory served by the disk backend.
	Root string `json:"root" validate:"required"`
	// MaxSize is the capacity in bytes. 0 disables the limit.
	MaxSize  int64                `json:"max_size" validate:"gte=0"`
	Overflow vfs.OverflowBehavior `json:"overflow"`
	// TempSuffix is appended to the target path to name transactional temp files.
	TempSuffix string `json:"temp_suffix" validate:"required,excludesall=/\\"`
	LogLevel   string `json:"log_level" validate:"oneof=debug info warn error"`

	// Source is the path of the loaded config file, empty if none was loaded.
	Source string `json:"-"`
}

func Default() Config {
	return Config{
		Root:       ".",
		Overflow:   vfs.ThrowException,
		TempSuffix: ".tmp",
		LogLevel:   "info",
	}
}

// Overrides holds values given on the command line. Nil fields are left as loaded.
type Overrides struct {
	Root       *string
	MaxSize    *int64
	Overflow   *vfs.OverflowBehavior
	TempSuffix *string
	LogLevel   *string
}

type LoadInput struct {
	// WorkDir is where relative paths resolve and [FileName] is looked up.
	// os.Getwd is used if empty.
	WorkDir string
	// ConfigPath is an explicit config file. It must exist if set.
	ConfigPath string
	Overrides  Overrides
}

// Load builds a Config with following precedence (highest wins):
// defaults, [FileName] in the working directory or the explicit ConfigPath, then overrides.
//
// Root in the returned Config is absolute.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	path, mustExist := filepath.Join(workDir, FileName), false
	if input.ConfigPath != "" {
		path, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
	}

	fileCfg, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		cfg = merge(cfg, fileCfg)
		cfg.Source = path
	}

	cfg = input.Overrides.apply(cfg)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := Validate(&cfg); err != nil {
		if cfg.Source != "" {
			return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfg.Source, err)
		}
		return Config{}, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(workDir, cfg.Root)
	}
	return cfg, nil
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist) && !mustExist:
			return Config{}, false, nil
		case errors.Is(err, os.ErrNotExist):
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, true, nil
}

// Parse decodes JSONC data. Fields missing from data are left zero.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.Root != "" {
		base.Root = overlay.Root
	}
	if overlay.MaxSize != 0 {
		base.MaxSize = overlay.MaxSize
	}
	if overlay.Overflow != vfs.ThrowException {
		base.Overflow = overlay.Overflow
	}
	if overlay.TempSuffix != "" {
		base.TempSuffix = overlay.TempSuffix
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	return base
}

func (o Overrides) apply(cfg Config) Config {
	if o.Root != nil {
		cfg.Root = *o.Root
	}
	if o.MaxSize != nil {
		cfg.MaxSize = *o.MaxSize
	}
	if o.Overflow != nil {
		cfg.Overflow = *o.Overflow
	}
	if o.TempSuffix != nil {
		cfg.TempSuffix = *o.TempSuffix
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	return cfg
}

// SlogLevel returns LogLevel as a slog.Level. Unknown levels map to slog.LevelInfo.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
