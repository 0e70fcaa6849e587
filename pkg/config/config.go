package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the downloader
type Config struct {
	// Remote board settings and credentials
	Booru BooruConfig `yaml:"booru" json:"booru"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retrieval (pagination) settings
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BooruConfig holds board-specific configuration
type BooruConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Username  string `yaml:"username" json:"username"`
	APIKey    string `yaml:"api_key" json:"api_key"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// RetrievalConfig holds pagination settings
type RetrievalConfig struct {
	// PageSize is the number of posts requested per page
	PageSize int `yaml:"page_size" json:"page_size"`
	// SuccessiveErrorLimit is the number of retries of one page before it is skipped
	SuccessiveErrorLimit int `yaml:"successive_error_limit" json:"successive_error_limit"`
	// OrderByIDThreshold caps the desired count for which ordering by ID is
	// requested upstream; ordering very large result sets risks timeouts there
	OrderByIDThreshold int `yaml:"order_by_id_threshold" json:"order_by_id_threshold"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	TagListFile   string `yaml:"tag_list_file" json:"tag_list_file"`
	WriteManifest bool   `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	ForbiddenExtensions []string      `yaml:"forbidden_extensions" json:"forbidden_extensions"`
	// ExtensionMatchCaseSensitive picks whether the forbidden-extension check
	// compares extensions verbatim or after lowercasing
	ExtensionMatchCaseSensitive bool `yaml:"extension_match_case_sensitive" json:"extension_match_case_sensitive"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Booru: BooruConfig{
			BaseURL:   "https://danbooru.donmai.us",
			UserAgent: "boorufetch/1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
			MaxRetries:        5,
			RetryDelay:        2 * time.Second,
		},
		Retrieval: RetrievalConfig{
			PageSize:             200,
			SuccessiveErrorLimit: 5,
			OrderByIDThreshold:   10000,
		},
		Output: OutputConfig{
			BaseDirectory: "./outputs",
			TagListFile:   "./inputs/tags.txt",
			WriteManifest: true,
		},
		Download: DownloadConfig{
			ConcurrentDownloads:         4,
			DownloadTimeout:             60 * time.Second,
			ForbiddenExtensions:         nil,
			ExtensionMatchCaseSensitive: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("BOORUFETCH_BASE_URL"); baseURL != "" {
		c.Booru.BaseURL = baseURL
	}
	if username := os.Getenv("BOORUFETCH_USERNAME"); username != "" {
		c.Booru.Username = username
	}
	if apiKey := os.Getenv("BOORUFETCH_API_KEY"); apiKey != "" {
		c.Booru.APIKey = apiKey
	}
	if userAgent := os.Getenv("BOORUFETCH_USER_AGENT"); userAgent != "" {
		c.Booru.UserAgent = userAgent
	}

	if rpm := os.Getenv("BOORUFETCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("BOORUFETCH_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if tagFile := os.Getenv("BOORUFETCH_TAG_LIST"); tagFile != "" {
		c.Output.TagListFile = tagFile
	}

	if concurrent := os.Getenv("BOORUFETCH_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if forbidden := os.Getenv("BOORUFETCH_FORBIDDEN_EXTENSIONS"); forbidden != "" {
		c.Download.ForbiddenExtensions = strings.Split(forbidden, ",")
	}

	if logLevel := os.Getenv("BOORUFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

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
	locations := []string{
		".boorufetch.yaml",
		".boorufetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "boorufetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "boorufetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".boorufetch.yaml"),
		filepath.Join(os.Getenv("HOME"), ".boorufetch.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Booru.BaseURL == "" {
		errs = append(errs, errors.New("board base URL is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Retrieval.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Retrieval.SuccessiveErrorLimit < 0 {
		errs = append(errs, errors.New("successive error limit cannot be negative"))
	}
	if c.Retrieval.OrderByIDThreshold < 0 {
		errs = append(errs, errors.New("order-by-id threshold cannot be negative"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
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
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Booru.BaseURL = baseURL
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if timeout, ok := flags["download-timeout"].(int); ok && timeout > 0 {
		c.Download.DownloadTimeout = time.Duration(timeout) * time.Second
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
/// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".boorufetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
