package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ResourceType identifies how a resource is fetched.
type ResourceType string

// Supported resource types.
const (
	ResourceGit   ResourceType = "git"
	ResourceHTTP  ResourceType = "http"
	ResourceIndex ResourceType = "index"
)

// Resource is one remote resource declared in the manifest.
type Resource struct {
	Name string       `yaml:"name"`
	Type ResourceType `yaml:"type"`
	URL  string       `yaml:"url"`
}

// Config defines configuration for the trawl CLI.
type Config struct {
	Concurrency int         `yaml:"concurrency"`
	Workdir     string      `yaml:"workdir"`
	Bucket      string      `yaml:"bucket"`
	GitDepth    int         `yaml:"git_depth"`
	Retry       RetryConfig `yaml:"retry"`
	Resources   []Resource  `yaml:"resources"`
}

// RetryConfig defines HTTP retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Concurrency: 20,
		GitDepth:    1,
		Retry: RetryConfig{
			Attempts:   5,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Concurrency int             `yaml:"concurrency"`
	Workdir     string          `yaml:"workdir"`
	Bucket      string          `yaml:"bucket"`
	GitDepth    int             `yaml:"git_depth"`
	Retry       yamlRetryConfig `yaml:"retry"`
	Resources   []Resource      `yaml:"resources"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML manifest file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read manifest file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse manifest file: %w", err)
	}

	cfg := Default()

	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.Workdir != "" {
		cfg.Workdir = yc.Workdir
	}
	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.GitDepth != 0 {
		cfg.GitDepth = yc.GitDepth
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}
	cfg.Resources = yc.Resources

	return cfg, nil
}

// LoadFromEnv loads configuration overrides from environment variables.
// Environment variables use the TRAWL_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("TRAWL_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TRAWL_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("TRAWL_WORKDIR"); v != "" {
		c.Workdir = v
	}
	if v := os.Getenv("TRAWL_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("TRAWL_GIT_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TRAWL_GIT_DEPTH: %w", err)
		}
		c.GitDepth = n
	}
	if v := os.Getenv("TRAWL_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TRAWL_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("TRAWL_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TRAWL_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("TRAWL_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TRAWL_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if c.GitDepth <= 0 {
		return errors.New("config: git_depth must be positive")
	}
	if len(c.Resources) == 0 {
		return errors.New("config: at least one resource is required")
	}

	seen := make(map[string]bool, len(c.Resources))
	var needsWorkdir, needsBucket bool
	for i, r := range c.Resources {
		if r.Name == "" {
			return fmt.Errorf("config: resource %d has no name", i)
		}
		if r.URL == "" {
			return fmt.Errorf("config: resource %q has no url", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("config: duplicate resource name %q", r.Name)
		}
		seen[r.Name] = true

		switch r.Type {
		case ResourceGit:
			needsWorkdir = true
		case ResourceHTTP, ResourceIndex:
			needsBucket = true
		default:
			return fmt.Errorf("config: resource %q has unknown type %q", r.Name, r.Type)
		}
	}

	if needsWorkdir && c.Workdir == "" {
		return errors.New("config: workdir is required for git resources")
	}
	if needsBucket && c.Bucket == "" {
		return errors.New("config: bucket is required for http and index resources")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.Workdir != "" {
		c.Workdir = override.Workdir
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.GitDepth != 0 {
		c.GitDepth = override.GitDepth
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	if len(override.Resources) != 0 {
		c.Resources = override.Resources
	}
	return c
}
