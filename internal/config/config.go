package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL  = "http://localhost:8000"
	DefaultLogLevel = "info"
	DefaultTimeout  = 30
)

// Config holds CLI configuration stored at ~/.bannerdesk/config.
type Config struct {
	APIKey         string `yaml:"api_key"`
	Username       string `yaml:"username,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
	LogFile        string `yaml:"log_file,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// Env is the environment overlay applied on top of the config file.
type Env struct {
	APIKey         string `env:"API_KEY"`
	BaseURL        string `env:"BASE_URL"`
	LogLevel       string `env:"LOG_LEVEL"`
	LogFile        string `env:"LOG_FILE"`
	TimeoutSeconds int    `env:"TIMEOUT_SECONDS"`
}

const envPrefix = "BANNERDESK_"

// Dir returns the config directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bannerdesk")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config")
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// ParseEnv reads the BANNERDESK_* environment overlay.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Prefix: envPrefix}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Load reads and parses the config file. A missing file is allowed when
// BANNERDESK_API_KEY is set; otherwise it returns an error wrapping
// os.ErrNotExist. An insecure file is always an error.
func Load() (*Config, error) {
	path := Path()

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		overlay, envErr := ParseEnv()
		if envErr != nil {
			return nil, envErr
		}
		if overlay.APIKey == "" {
			return nil, fmt.Errorf("config not found: %w", err)
		}
		cfg := &Config{}
		cfg.Apply(overlay)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	perm := info.Mode().Perm()
	if perm != 0600 {
		return nil, fmt.Errorf("config permissions too open: %04o (want 0600)", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overlay, err := ParseEnv()
	if err != nil {
		return nil, err
	}
	cfg.Apply(overlay)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("config missing api_key")
	}

	return &cfg, nil
}

// Apply copies every non-empty overlay value onto the config.
func (c *Config) Apply(e Env) {
	if e.APIKey != "" {
		c.APIKey = e.APIKey
	}
	if e.BaseURL != "" {
		c.BaseURL = e.BaseURL
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.LogFile != "" {
		c.LogFile = e.LogFile
	}
	if e.TimeoutSeconds > 0 {
		c.TimeoutSeconds = e.TimeoutSeconds
	}
}

// Save writes the config to disk with secure permissions.
func (c *Config) Save() error {
	path := Path()
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// ResolvedBaseURL returns the API root, falling back to the default.
func (c *Config) ResolvedBaseURL() string {
	if c == nil || c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// ResolvedLogLevel returns the log level, falling back to info.
func (c *Config) ResolvedLogLevel() string {
	if c == nil || c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// ResolvedLogFile returns the log file path, defaulting next to the config.
func (c *Config) ResolvedLogFile() string {
	if c == nil || c.LogFile == "" {
		return filepath.Join(Dir(), "bannerdesk.log")
	}
	return c.LogFile
}

// Timeout returns the HTTP timeout for API calls.
func (c *Config) Timeout() time.Duration {
	if c == nil || c.TimeoutSeconds <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
