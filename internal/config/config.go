// Package config loads deploc settings from .env, .deploc.yaml and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File names looked up in the project directory.
const (
	EnvFile  = ".env"
	YAMLFile = ".deploc.yaml"
)

// Counter names.
const (
	CounterCloc    = "cloc"
	CounterBuiltin = "builtin"
)

// Environment variables. They take precedence over both files.
const (
	EnvCounter          = "DEPLOC_COUNTER"
	EnvClocBin          = "DEPLOC_CLOC_BIN"
	EnvMaxConcurrent    = "DEPLOC_MAX_CONCURRENT"
	EnvDB               = "DEPLOC_DB"
	EnvLanguages        = "DEPLOC_LANGUAGES"
	EnvFirstParty       = "DEPLOC_FIRST_PARTY"
	EnvRespectGitignore = "DEPLOC_RESPECT_GITIGNORE"
)

type Config struct {
	Counter          string   `yaml:"counter"`
	ClocBin          string   `yaml:"cloc_bin"`
	MaxConcurrent    int      `yaml:"max_concurrent"`
	DB               string   `yaml:"db"`
	Languages        []string `yaml:"languages"`
	FirstParty       string   `yaml:"first_party"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Counter: CounterCloc,
		ClocBin: "cloc",
	}
}

// Load builds a Config for the project in dir. Later sources override
// earlier ones: defaults, .deploc.yaml, .env, then the process environment.
// Missing files are not an error. Field values are not checked; callers
// apply their own overrides and then call Validate.
func Load(dir string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, YAMLFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", YAMLFile, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read %s: %w", YAMLFile, err)
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, EnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", EnvFile, err)
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(dotenv[key])
	}

	if v := lookup(EnvCounter); v != "" {
		cfg.Counter = v
	}
	if v := lookup(EnvClocBin); v != "" {
		cfg.ClocBin = v
	}
	if v := lookup(EnvDB); v != "" {
		cfg.DB = v
	}
	if v := lookup(EnvFirstParty); v != "" {
		cfg.FirstParty = v
	}
	if v := lookup(EnvLanguages); v != "" {
		cfg.Languages = splitList(v)
	}
	if v := lookup(EnvMaxConcurrent); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMaxConcurrent, err)
		}
		cfg.MaxConcurrent = n
	}
	if v := lookup(EnvRespectGitignore); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRespectGitignore, err)
		}
		cfg.RespectGitignore = b
	}

	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Counter {
	case CounterCloc, CounterBuiltin:
	default:
		return fmt.Errorf("unknown counter %q (valid: %s, %s)", c.Counter, CounterCloc, CounterBuiltin)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must not be negative, got %d", c.MaxConcurrent)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
