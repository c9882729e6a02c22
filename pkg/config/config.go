package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the public GitHub REST API
	DefaultBaseURL = "https://api.github.com/"

	// DefaultTimeout applies to each API request
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of parallel lookups for desc
	DefaultConcurrency = 5

	// DefaultCount is the number of repositories list prints
	DefaultCount = 10

	// MaxCount is the largest accepted list count
	MaxCount = 30
)

// Environment variables read after the config file
const (
	EnvToken       = "GITHUB_TOKEN"
	EnvBaseURL     = "GHTOOL_API_URL"
	EnvConcurrency = "GHTOOL_CONCURRENCY"
)

// dotenvFile is read from the working directory before the environment is applied
const dotenvFile = ".env"

// Config represents the ghtool configuration
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	Fetch  FetchConfig  `yaml:"fetch"`
	List   ListConfig   `yaml:"list"`
}

// GitHubConfig represents GitHub API access settings
type GitHubConfig struct {
	Token   string        `yaml:"token,omitempty"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// FetchConfig configures the parallel repository lookups
type FetchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// ListConfig configures the list command
type ListConfig struct {
	DefaultCount int `yaml:"default_count"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Fetch: FetchConfig{
			Concurrency: DefaultConcurrency,
		},
		List: ListConfig{
			DefaultCount: DefaultCount,
		},
	}
}

// LoadConfig loads configuration from the default location
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadConfigFromPath(configPath)
}

// LoadConfigFromPath loads configuration from a specific path.
// A missing file yields the defaults.
func LoadConfigFromPath(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads the config file at path (default location when empty), then
// applies a .env file from the working directory and the environment.
func Load(path string) (*Config, error) {
	if err := loadDotenv(dotenvFile); err != nil {
		return nil, err
	}

	var (
		config *Config
		err    error
	)
	if path == "" {
		config, err = LoadConfig()
	} else {
		config, err = LoadConfigFromPath(path)
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadDotenv exports the variables of an env file that are not already set.
// A missing file is not an error.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file settings with environment variables
func (c *Config) ApplyEnv() error {
	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		c.GitHub.Token = token
	}

	if baseURL := strings.TrimSpace(os.Getenv(EnvBaseURL)); baseURL != "" {
		c.GitHub.BaseURL = baseURL
	}

	if raw := strings.TrimSpace(os.Getenv(EnvConcurrency)); raw != "" {
		concurrency, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvConcurrency, raw, err)
		}
		c.Fetch.Concurrency = concurrency
	}

	return nil
}

// SaveConfigToPath saves configuration to a specific path
func (c *Config) SaveConfigToPath(path string) error {
	// Create config directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file may hold a token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".ghtool", "config.yaml"), nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHub.BaseURL == "" {
		return fmt.Errorf("GitHub API base URL is required")
	}

	u, err := url.Parse(c.GitHub.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GitHub API base URL %q must be an absolute URL", c.GitHub.BaseURL)
	}

	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("GitHub timeout cannot be negative")
	}

	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1, got %d", c.Fetch.Concurrency)
	}

	if c.List.DefaultCount < 1 || c.List.DefaultCount > MaxCount {
		return fmt.Errorf("list default count must be between 1 and %d, got %d", MaxCount, c.List.DefaultCount)
	}

	return nil
}
