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

// Config holds all configuration options for apodget
type Config struct {
	// Upstream site layout
	APOD APODConfig `yaml:"apod" json:"apod"`

	// HTTP transport settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Random mode settings
	Random RandomConfig `yaml:"random" json:"random"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal output preferences
	UI UIConfig `yaml:"ui" json:"ui"`
}

// APODConfig describes where pages live and how to scrape them.
// The selectors are coupled to the live site's markup.
type APODConfig struct {
	PageURLTemplate     string `yaml:"page_url_template" json:"page_url_template"`
	ImageBaseURL        string `yaml:"image_base_url" json:"image_base_url"`
	ImageSelector       string `yaml:"image_selector" json:"image_selector"`
	DescriptionSelector string `yaml:"description_selector" json:"description_selector"`
	UserAgent           string `yaml:"user_agent" json:"user_agent"`
}

// HTTPConfig holds transport configuration
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RandomConfig holds retry settings for random mode
type RandomConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// OutputConfig holds download configuration.
// The download directory itself is only ever taken from --download.
type OutputConfig struct {
	FallbackFilename string `yaml:"fallback_filename" json:"fallback_filename"`
	PreferHD         bool   `yaml:"prefer_hd" json:"prefer_hd"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	Format  string `yaml:"format" json:"format"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	Color    bool `yaml:"color" json:"color"`
	Progress bool `yaml:"progress" json:"progress"`
}

const (
	DefaultPageURLTemplate     = "http://apod.nasa.gov/apod/ap{{DATE}}.html"
	DefaultImageBaseURL        = "http://apod.nasa.gov/apod/"
	DefaultImageSelector       = "img"
	DefaultDescriptionSelector = "body > p:nth-child(3)"
	DefaultFallbackFilename    = "APODdownload"
	DefaultMaxAttempts         = 5
	DefaultTimeout             = 15 * time.Second

	// DatePlaceholder is substituted with the compact date in the page template
	DatePlaceholder = "{{DATE}}"

	envPrefix = "APODGET_"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APOD: APODConfig{
			PageURLTemplate:     DefaultPageURLTemplate,
			ImageBaseURL:        DefaultImageBaseURL,
			ImageSelector:       DefaultImageSelector,
			DescriptionSelector: DefaultDescriptionSelector,
			UserAgent:           "apodget/1.0 (+https://apod.nasa.gov/apod/)",
		},
		HTTP: HTTPConfig{
			Timeout: DefaultTimeout,
		},
		Random: RandomConfig{
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  0,
		},
		Output: OutputConfig{
			FallbackFilename: DefaultFallbackFilename,
			PreferHD:         false,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			File:   "",
		},
		UI: UIConfig{
			Color:    true,
			Progress: true,
		},
	}
}

// LoadFromEnv loads configuration from APODGET_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(envPrefix + "PAGE_URL_TEMPLATE"); v != "" {
		c.APOD.PageURLTemplate = v
	}
	if v := os.Getenv(envPrefix + "IMAGE_BASE_URL"); v != "" {
		c.APOD.ImageBaseURL = v
	}
	if v := os.Getenv(envPrefix + "IMAGE_SELECTOR"); v != "" {
		c.APOD.ImageSelector = v
	}
	if v := os.Getenv(envPrefix + "DESCRIPTION_SELECTOR"); v != "" {
		c.APOD.DescriptionSelector = v
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.APOD.UserAgent = v
	}

	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", envPrefix, err))
		} else {
			c.HTTP.Timeout = d
		}
	}

	if v := os.Getenv(envPrefix + "MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_ATTEMPTS: %w", envPrefix, err))
		} else {
			c.Random.MaxAttempts = n
		}
	}

	if v := os.Getenv(envPrefix + "PREFER_HD"); v != "" {
		c.Output.PreferHD = strings.ToLower(v) == "true"
	}

	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	// NO_COLOR is honoured alongside our own prefix
	if os.Getenv("NO_COLOR") != "" || strings.ToLower(os.Getenv(envPrefix+"NO_COLOR")) == "true" {
		c.UI.Color = false
		c.Logging.NoColor = true
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".apodget.yaml",
		".apodget.yml",
		filepath.Join(home, ".config", "apodget", "config.yaml"),
		filepath.Join(home, ".config", "apodget", "config.yml"),
		filepath.Join(home, ".apodget.yaml"),
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

	if !strings.Contains(c.APOD.PageURLTemplate, DatePlaceholder) {
		errs = append(errs, fmt.Errorf("page URL template must contain %s", DatePlaceholder))
	}
	if c.APOD.ImageBaseURL == "" {
		errs = append(errs, errors.New("image base URL is required"))
	}
	if c.APOD.ImageSelector == "" {
		errs = append(errs, errors.New("image selector is required"))
	}
	if c.APOD.DescriptionSelector == "" {
		errs = append(errs, errors.New("description selector is required"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}

	if c.Random.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Random.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.Output.FallbackFilename == "" || strings.ContainsAny(c.Output.FallbackFilename, `/\`) {
		errs = append(errs, errors.New("fallback filename must be a plain file name"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid log format: %q", c.Logging.Format))
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

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.HTTP.Timeout = timeout
	}
	if attempts, ok := flags["max-attempts"].(int); ok {
		c.Random.MaxAttempts = attempts
	}
	if hd, ok := flags["hd"].(bool); ok {
		c.Output.PreferHD = hd
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.UI.Color = false
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".apodget.env"))

	// Start with defaults
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
