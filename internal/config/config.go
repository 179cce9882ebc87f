package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"wbsetup/internal/fsutil"
)

const fileHeader = "# wbsetup configuration. Unknown keys are rejected.\n\n"

// Ensure loads the config at path, writing the defaults there first when
// no file exists yet. An existing but broken file is reported, never
// replaced.
func Ensure(path string) (Config, error) {
	path = orDefault(path)
	cfg, err := Load(path)
	switch {
	case err == nil:
		return cfg, nil
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, err
	}
	cfg = DefaultConfig()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads, normalizes and validates the config at path. A missing file
// satisfies errors.Is(err, os.ErrNotExist).
func Load(path string) (Config, error) {
	path = orDefault(path)
	blob, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("DOC_CONFIG_READ: %s: %w", path, err)
	}
	cfg, err := decode(blob)
	if err != nil {
		return Config{}, fmt.Errorf("DOC_CONFIG_PARSE: %s: %w", path, err)
	}
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(blob []byte) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(blob))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, errors.New(strict.String())
		}
		return Config{}, err
	}
	return cfg, nil
}

// Save validates cfg and replaces the file at path atomically.
func Save(path string, cfg Config) error {
	path = orDefault(path)
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("DOC_CONFIG_ENCODE: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("DOC_CONFIG_WRITE: %w", err)
	}
	return fsutil.AtomicWrite(path, append([]byte(fileHeader), blob...), 0o644)
}

func orDefault(path string) string {
	if path == "" {
		return DefaultConfigPath()
	}
	return path
}
