// Package config loads archiver settings from an optional TOML file, a .env
// file and environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "podarchive.toml"

// Environment overrides.
const (
	EnvFeedURL  = "PODARCHIVE_FEED_URL"
	EnvRoot     = "PODARCHIVE_ROOT"
	EnvLogLevel = "PODARCHIVE_LOG_LEVEL"
)

// Archive describes the on-disk layout.
type Archive struct {
	Root           string `toml:"root"`
	MediaDir       string `toml:"media_dir"`
	MediaExtension string `toml:"media_extension"`
}

// HTTP holds transport settings.
type HTTP struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Hash selects the digest algorithm.
type Hash struct {
	Algorithm string `toml:"algorithm"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the full archiver configuration.
type Config struct {
	FeedURL string  `toml:"feed_url"`
	Archive Archive `toml:"archive"`
	HTTP    HTTP    `toml:"http"`
	Hash    Hash    `toml:"hash"`
	Logging Logging `toml:"logging"`
}

// Load reads path (DefaultPath when empty) if it exists, applies environment
// overrides and validates the result. A missing default file is not an error;
// a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvFeedURL); v != "" {
		c.FeedURL = v
	}
	if v := os.Getenv(EnvRoot); v != "" {
		c.Archive.Root = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() {
	c.FeedURL = strings.TrimSpace(c.FeedURL)
	c.Archive.Root = strings.TrimSpace(c.Archive.Root)
	c.Archive.MediaDir = strings.Trim(strings.TrimSpace(c.Archive.MediaDir), "/")
	c.Archive.MediaExtension = strings.TrimPrefix(strings.TrimSpace(c.Archive.MediaExtension), ".")
	c.Hash.Algorithm = strings.ToLower(strings.TrimSpace(c.Hash.Algorithm))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.FeedURL == "" {
		errs = append(errs, errors.New("feed_url is required"))
	}
	if c.Archive.Root == "" {
		errs = append(errs, errors.New("archive.root is required"))
	}
	if c.Archive.MediaDir == "" {
		errs = append(errs, errors.New("archive.media_dir is required"))
	}
	if c.Archive.MediaExtension == "" {
		errs = append(errs, errors.New("archive.media_extension is required"))
	}
	if c.HTTP.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("http.timeout_seconds must be >= 0, got %d", c.HTTP.TimeoutSeconds))
	}
	switch c.Hash.Algorithm {
	case "sha256", "blake3":
	default:
		errs = append(errs, fmt.Errorf("hash.algorithm must be sha256 or blake3, got %q", c.Hash.Algorithm))
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// FeedTimeout returns the timeout applied to feed requests.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
