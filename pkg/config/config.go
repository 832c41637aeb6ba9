package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the dataset collector
type Config struct {
	// Image search API settings
	Bing BingConfig `yaml:"bing" json:"bing"`

	// Content-community API settings
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// Dataset layout on disk
	Output OutputConfig `yaml:"output" json:"output"`

	// Image download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// API request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Perceptual deduplication settings
	Dedup DedupConfig `yaml:"dedup" json:"dedup"`

	// Search queries per label
	Queries QueriesConfig `yaml:"queries" json:"queries"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Run metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// BingConfig holds image search API configuration
type BingConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	APIKey   string `yaml:"api_key" json:"api_key"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Market   string `yaml:"market" json:"market"`
	Count    int    `yaml:"count" json:"count"`
}

// RedditConfig holds content-community API configuration
type RedditConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
	Subreddit    string `yaml:"subreddit" json:"subreddit"`
	Limit        int    `yaml:"limit" json:"limit"`

	// Endpoint overrides; empty means the production hosts
	TokenURL string `yaml:"token_url,omitempty" json:"token_url,omitempty"`
	APIBase  string `yaml:"api_base,omitempty" json:"api_base,omitempty"`
}

// OutputConfig holds dataset layout configuration
type OutputConfig struct {
	RootDirectory string `yaml:"root_directory" json:"root_directory"`
	MetadataFile  string `yaml:"metadata_file" json:"metadata_file"`
	JPEGQuality   int    `yaml:"jpeg_quality" json:"jpeg_quality"`
}

// DownloadConfig holds image download configuration
type DownloadConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes" json:"max_bytes"`
	MaxPixels int64         `yaml:"max_pixels" json:"max_pixels"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds API request pacing configuration
type RateLimitConfig struct {
	// RequestsPerMinute caps API requests per source; 0 disables pacing
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// DedupConfig holds perceptual deduplication configuration
type DedupConfig struct {
	// SeedFromDisk fingerprints images already in the class folders before the
	// run starts. Off by default: every run starts with an empty set.
	SeedFromDisk bool `yaml:"seed_from_disk" json:"seed_from_disk"`
}

// QueriesConfig holds the search query list for each label
type QueriesConfig struct {
	BMR  []string `yaml:"bmr" json:"bmr"`
	RASH []string `yaml:"rash" json:"rash"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds run metrics export configuration
type MetricsConfig struct {
	// TextfilePath, when set, receives Prometheus text-format run metrics at exit
	TextfilePath string `yaml:"textfile_path" json:"textfile_path"`
}

// DefaultBMRQueries are the search queries collected under the BMR label
var DefaultBMRQueries = []string{
	"butterfly malar rash",
	"lupus rash",
	"malar rash",
	"discoid rash",
	"rash across cheeks",
	"facial inflammation",
	"stress rash on face",
}

// DefaultRASHQueries are the search queries collected under the RASH label
var DefaultRASHQueries = []string{
	"facial eczema",
	"chronic skin condition on face",
	"rosacea on face",
	"fifth disease on face",
	"impetigo on face",
	"chickenpox on face",
	"ringworm on face",
	"allergic eczema on face",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Bing: BingConfig{
			Enabled:  true,
			Endpoint: "https://api.bing.microsoft.com/v7.0",
			Market:   "en-US",
			Count:    50,
		},
		Reddit: RedditConfig{
			Enabled:   true,
			UserAgent: "rashset/0.1",
			Subreddit: "all",
			Limit:     50,
		},
		Output: OutputConfig{
			RootDirectory: "images",
			MetadataFile:  "dataset_metadata.csv",
			JPEGQuality:   90,
		},
		Download: DownloadConfig{
			Timeout:   15 * time.Second,
			MaxBytes:  20 << 20,
			MaxPixels: 90_000_000,
			UserAgent: "Mozilla/5.0 (compatible; rashset/0.1)",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Queries: QueriesConfig{
			BMR:  append([]string(nil), DefaultBMRQueries...),
			RASH: append([]string(nil), DefaultRASHQueries...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Credentials
	setString(&c.Bing.APIKey, "RASHSET_BING_KEY")
	setString(&c.Bing.Endpoint, "RASHSET_BING_ENDPOINT")
	setString(&c.Reddit.ClientID, "RASHSET_REDDIT_CLIENT_ID")
	setString(&c.Reddit.ClientSecret, "RASHSET_REDDIT_CLIENT_SECRET")
	setString(&c.Reddit.Username, "RASHSET_REDDIT_USERNAME")
	setString(&c.Reddit.Password, "RASHSET_REDDIT_PASSWORD")
	setString(&c.Reddit.UserAgent, "RASHSET_REDDIT_USER_AGENT")
	setString(&c.Reddit.Subreddit, "RASHSET_REDDIT_SUBREDDIT")

	// Output
	setString(&c.Output.RootDirectory, "RASHSET_OUTPUT_DIR")

	var errs []error

	if err := setPositiveInt(&c.Bing.Count, "RASHSET_BING_COUNT"); err != nil {
		errs = append(errs, err)
	}
	if err := setPositiveInt(&c.Reddit.Limit, "RASHSET_REDDIT_LIMIT"); err != nil {
		errs = append(errs, err)
	}
	if err := setNonNegativeInt(&c.RateLimit.RequestsPerMinute, "RASHSET_REQUESTS_PER_MINUTE"); err != nil {
		errs = append(errs, err)
	}

	if timeout := os.Getenv("RASHSET_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("RASHSET_DOWNLOAD_TIMEOUT: %w", err))
		} else {
			c.Download.Timeout = d
		}
	}

	if seed := os.Getenv("RASHSET_SEED_FROM_DISK"); seed != "" {
		b, err := strconv.ParseBool(seed)
		if err != nil {
			errs = append(errs, fmt.Errorf("RASHSET_SEED_FROM_DISK must be a boolean, got %q", seed))
		} else {
			c.Dedup.SeedFromDisk = b
		}
	}

	// Logging level
	setString(&c.Logging.Level, "RASHSET_LOG_LEVEL")
	setString(&c.Metrics.TextfilePath, "RASHSET_METRICS_FILE")

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setNonNegativeInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	*dst = n
	return nil
}

func setPositiveInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	*dst = n
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".rashset.yaml",
		".rashset.yml",
		filepath.Join(home, ".config", "rashset", "config.yaml"),
		filepath.Join(home, ".config", "rashset", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Missing credentials are not
// an error: the affected source is skipped at run time.
func (c *Config) Validate() error {
	var errs []error

	if c.Bing.Enabled {
		if c.Bing.Endpoint == "" {
			errs = append(errs, errors.New("bing endpoint is required"))
		}
		if c.Bing.Count <= 0 || c.Bing.Count > 150 {
			errs = append(errs, errors.New("bing count must be between 1 and 150"))
		}
	}

	if c.Reddit.Enabled {
		if c.Reddit.Subreddit == "" {
			errs = append(errs, errors.New("reddit subreddit is required"))
		}
		if c.Reddit.Limit <= 0 || c.Reddit.Limit > 100 {
			errs = append(errs, errors.New("reddit limit must be between 1 and 100"))
		}
	}

	if c.Output.RootDirectory == "" {
		errs = append(errs, errors.New("output root directory is required"))
	}
	if c.Output.MetadataFile == "" {
		errs = append(errs, errors.New("metadata file name is required"))
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		errs = append(errs, errors.New("jpeg quality must be between 1 and 100"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxBytes <= 0 {
		errs = append(errs, errors.New("download max bytes must be positive"))
	}
	if c.Download.MaxPixels <= 0 {
		errs = append(errs, errors.New("download max pixels must be positive"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute must not be negative"))
	}

	if len(c.Queries.BMR) == 0 && len(c.Queries.RASH) == 0 {
		errs = append(errs, errors.New("at least one query is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// HasBingCredentials reports whether a usable image search API key is configured
func (c *Config) HasBingCredentials() bool {
	return !IsPlaceholder(c.Bing.APIKey)
}

// HasRedditCredentials reports whether all content-community credentials are configured
func (c *Config) HasRedditCredentials() bool {
	for _, v := range []string{c.Reddit.ClientID, c.Reddit.ClientSecret, c.Reddit.Username, c.Reddit.Password} {
		if IsPlaceholder(v) {
			return false
		}
	}
	return true
}

// IsPlaceholder reports whether a credential value is empty or an unfilled template value
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "YOUR_")
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.RootDirectory = outputDir
	}
	if count, ok := flags["bing-count"].(int); ok && count > 0 {
		c.Bing.Count = count
	}
	if limit, ok := flags["reddit-limit"].(int); ok && limit > 0 {
		c.Reddit.Limit = limit
	}
	if subreddit, ok := flags["subreddit"].(string); ok && subreddit != "" {
		c.Reddit.Subreddit = subreddit
	}
	if seed, ok := flags["seed-from-disk"].(bool); ok {
		c.Dedup.SeedFromDisk = seed
	}
	if skip, ok := flags["skip-bing"].(bool); ok && skip {
		c.Bing.Enabled = false
	}
	if skip, ok := flags["skip-reddit"].(bool); ok && skip {
		c.Reddit.Enabled = false
	}
	if path, ok := flags["metrics-file"].(string); ok && path != "" {
		c.Metrics.TextfilePath = path
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".rashset.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
