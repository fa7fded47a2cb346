package kif

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
	Encoding string `json:"encoding" yaml:"encoding"`
	Site     string `json:"site" yaml:"site"`
	Archive  string `json:"archive" yaml:"archive"`
	Workers  int    `json:"workers" yaml:"workers"`
}

var configNames = []string{"csa2kif.yaml", "csa2kif.yml", "csa2kif.json"}

var ErrConfigNotFound = errors.New("config not found")

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Encoding: "utf-8",
		Site:     DefaultSite,
		Archive:  "archive.parquet",
		Workers:  runtime.NumCPU(),
	}
}

// FindConfigPath walks up from the working directory looking for a config
// file.
func FindConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := cwd
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w from %s", ErrConfigNotFound, cwd)
}

// LoadConfig reads path over the defaults. YAML and JSON are told apart by
// extension.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveConfig loads the discovered config file, or the defaults when
// there is none, then applies LOG_LEVEL and KIF_ENCODING.
func ResolveConfig() (Config, error) {
	cfg := DefaultConfig()
	path, err := FindConfigPath()
	switch {
	case err == nil:
		if cfg, err = LoadConfig(path); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, ErrConfigNotFound):
		return Config{}, err
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("KIF_ENCODING")); v != "" {
		cfg.Encoding = v
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
