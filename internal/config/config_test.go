package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(LoadInput{WorkDir: dir})
	assert.NilError(t, err)

	expected := Default()
	expected.Root = dir
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Fatalf("not equal (-expected +actual):\n%s", diff)
	}
}

func TestLoad_project_file(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, FileName, `{
	// served directory
	"root": "data",
	"max_size": 4096,
	"overflow": "evict",
	"log_level": "DEBUG", // trailing comma is fine
}`)

	cfg, err := Load(LoadInput{WorkDir: dir})
	assert.NilError(t, err)

	expected := Config{
		Root:       filepath.Join(dir, "data"),
		MaxSize:    4096,
		Overflow:   vfs.EvictOldest,
		TempSuffix: ".tmp",
		LogLevel:   "debug",
		Source:     path,
	}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Fatalf("not equal (-expected +actual):\n%s", diff)
	}
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_overrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FileName, `{"root": "/srv/data", "max_size": 10, "temp_suffix": ".part"}`)

	var (
		maxSize  int64 = 0
		overflow       = vfs.IgnoreWrites
		level          = "warn"
	)
	cfg, err := Load(LoadInput{
		WorkDir: dir,
		Overrides: Overrides{
			MaxSize:  &maxSize,
			Overflow: &overflow,
			LogLevel: &level,
		},
	})
	assert.NilError(t, err)

	assert.Equal(t, "/srv/data", cfg.Root)
	assert.Equal(t, int64(0), cfg.MaxSize)
	assert.Equal(t, vfs.IgnoreWrites, cfg.Overflow)
	assert.Equal(t, ".part", cfg.TempSuffix)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoad_explicit_path(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FileName, `{"max_size": 1}`)
	writeConfig(t, dir, "other.json", `{"max_size": 2}`)

	cfg, err := Load(LoadInput{WorkDir: dir, ConfigPath: "other.json"})
	assert.NilError(t, err)
	assert.Equal(t, int64(2), cfg.MaxSize)
	assert.Equal(t, filepath.Join(dir, "other.json"), cfg.Source)

	_, err = Load(LoadInput{WorkDir: dir, ConfigPath: "missing.json"})
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_invalid(t *testing.T) {
	type testCase struct {
		name    string
		content string
	}
	for _, tc := range []testCase{
		{"broken", `{"root": `},
		{"unknown field", `{"rot": "data"}`},
		{"negative size", `{"max_size": -1}`},
		{"unknown overflow", `{"overflow": "drop"}`},
		{"unknown level", `{"log_level": "trace"}`},
		{"suffix with separator", `{"temp_suffix": "/tmp"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, FileName, tc.content)
			_, err := Load(LoadInput{WorkDir: dir})
			assert.Assert(t, errors.Is(err, ErrConfigInvalid), "err = %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NilError(t, Validate(&cfg))

	cfg.Root = ""
	assert.ErrorContains(t, Validate(&cfg), "Config.Root")

	cfg = Default()
	cfg.Overflow = vfs.OverflowBehavior(9)
	assert.ErrorContains(t, Validate(&cfg), "overflow")
}
