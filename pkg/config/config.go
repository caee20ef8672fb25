package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the gallery mirror
type Config struct {
	// Remote gallery site and credentials
	Site SiteConfig `yaml:"site" json:"site"`

	// Where albums are written
	Output OutputConfig `yaml:"output" json:"output"`

	// Geolocation embedded into every image
	Location LocationConfig `yaml:"location" json:"location"`

	// Headless browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds the gallery site location, login credentials and page paths
type SiteConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	Username       string `yaml:"username" json:"username"`
	Password       string `yaml:"password" json:"password"`
	LoginPath      string `yaml:"login_path" json:"login_path"`
	GalleryPath    string `yaml:"gallery_path" json:"gallery_path"`
	LoggedInMarker string `yaml:"logged_in_marker" json:"logged_in_marker"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	SaveDir string `yaml:"save_dir" json:"save_dir"`
}

// LocationConfig holds the static GPS tag set. Latitude and longitude are
// degree, minute, second triples.
type LocationConfig struct {
	Latitude     []float64 `yaml:"latitude" json:"latitude"`
	LatitudeRef  string    `yaml:"latitude_ref" json:"latitude_ref"`
	Longitude    []float64 `yaml:"longitude" json:"longitude"`
	LongitudeRef string    `yaml:"longitude_ref" json:"longitude_ref"`
	Altitude     float64   `yaml:"altitude" json:"altitude"`
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	IdleWindow        time.Duration `yaml:"idle_window" json:"idle_window"`
	ResponseTimeout   time.Duration `yaml:"response_timeout" json:"response_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			LoginPath:      "/login",
			GalleryPath:    "/backend/gallery/",
			LoggedInMarker: "backend",
		},
		Output: OutputConfig{
			SaveDir: "./downloads",
		},
		Location: LocationConfig{
			Latitude:     []float64{0, 0, 0},
			LatitudeRef:  "N",
			Longitude:    []float64{0, 0, 0},
			LongitudeRef: "E",
			Altitude:     0,
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 60 * time.Second,
			IdleWindow:        500 * time.Millisecond,
			ResponseTimeout:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("KIGAROO_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if username := os.Getenv("KIGAROO_USERNAME"); username != "" {
		c.Site.Username = username
	}
	if password := os.Getenv("KIGAROO_PASSWORD"); password != "" {
		c.Site.Password = password
	}

	if saveDir := os.Getenv("KIGAROO_SAVE_DIR"); saveDir != "" {
		c.Output.SaveDir = saveDir
	}

	if headless := os.Getenv("KIGAROO_HEADLESS"); headless != "" {
		val, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid KIGAROO_HEADLESS value %q: %w", headless, err)
		}
		c.Browser.Headless = val
	}

	if logLevel := os.Getenv("KIGAROO_LOG_LEVEL"); logLevel != "" {
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
		"kigaroo.yaml",
		"kigaroo.yml",
		".kigaroo.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "kigaroo", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".kigaroo.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. A missing password is not an
// error here because it may still come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	} else if u, err := url.Parse(c.Site.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("site base URL %q must be an absolute http(s) URL", c.Site.BaseURL))
	}
	if c.Site.Username == "" {
		errs = append(errs, errors.New("site username is required"))
	}
	if c.Site.LoginPath == "" {
		errs = append(errs, errors.New("login path is required"))
	}
	if c.Site.GalleryPath == "" {
		errs = append(errs, errors.New("gallery path is required"))
	}
	if c.Site.LoggedInMarker == "" {
		errs = append(errs, errors.New("logged-in marker is required"))
	}

	if c.Output.SaveDir == "" {
		errs = append(errs, errors.New("save directory is required"))
	}

	errs = append(errs, c.Location.validate()...)

	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.IdleWindow <= 0 {
		errs = append(errs, errors.New("idle window must be positive"))
	}
	if c.Browser.ResponseTimeout <= 0 {
		errs = append(errs, errors.New("response timeout must be positive"))
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

func (l LocationConfig) validate() []error {
	var errs []error
	if len(l.Latitude) != 3 {
		errs = append(errs, errors.New("location latitude must be a [degrees, minutes, seconds] triple"))
	}
	if len(l.Longitude) != 3 {
		errs = append(errs, errors.New("location longitude must be a [degrees, minutes, seconds] triple"))
	}
	for _, v := range append(append([]float64{}, l.Latitude...), l.Longitude...) {
		if v < 0 {
			errs = append(errs, errors.New("location coordinates must be non-negative; use the ref fields for direction"))
			break
		}
	}
	if l.LatitudeRef != "N" && l.LatitudeRef != "S" {
		errs = append(errs, errors.New("location latitude_ref must be N or S"))
	}
	if l.LongitudeRef != "E" && l.LongitudeRef != "W" {
		errs = append(errs, errors.New("location longitude_ref must be E or W"))
	}
	if l.Altitude < 0 {
		errs = append(errs, errors.New("location altitude must be above sea level"))
	}
	return errs
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Site.Username = username
	}
	if saveDir, ok := flags["save-dir"].(string); ok && saveDir != "" {
		c.Output.SaveDir = saveDir
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".kigaroo.env"))

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

// Masked returns a copy of the configuration with the password hidden
func (c *Config) Masked() Config {
	masked := *c
	if masked.Site.Password != "" {
		masked.Site.Password = "********"
	}
	return masked
}
