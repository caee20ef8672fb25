package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test default values
	if config.Output.SaveDir != "./downloads" {
		t.Errorf("Expected default save directory to be ./downloads, got %s", config.Output.SaveDir)
	}

	if config.Site.LoginPath != "/login" {
		t.Errorf("Expected default login path to be /login, got %s", config.Site.LoginPath)
	}

	if config.Site.GalleryPath != "/backend/gallery/" {
		t.Errorf("Expected default gallery path to be /backend/gallery/, got %s", config.Site.GalleryPath)
	}

	if !config.Browser.Headless {
		t.Error("Expected browser to be headless by default")
	}

	assert.Equal(t, 30*time.Second, config.Browser.ResponseTimeout)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KIGAROO_BASE_URL", "https://kita.example.com")
	t.Setenv("KIGAROO_USERNAME", "parent@example.com")
	t.Setenv("KIGAROO_PASSWORD", "hunter2")
	t.Setenv("KIGAROO_SAVE_DIR", "/tmp/test-downloads")
	t.Setenv("KIGAROO_HEADLESS", "false")
	t.Setenv("KIGAROO_LOG_LEVEL", "debug")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://kita.example.com", config.Site.BaseURL)
	assert.Equal(t, "parent@example.com", config.Site.Username)
	assert.Equal(t, "hunter2", config.Site.Password)
	assert.Equal(t, "/tmp/test-downloads", config.Output.SaveDir)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidHeadless(t *testing.T) {
	t.Setenv("KIGAROO_HEADLESS", "sometimes")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err == nil {
		t.Fatal("Expected error for invalid KIGAROO_HEADLESS value")
	}
	assert.Contains(t, err.Error(), "KIGAROO_HEADLESS")
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "kigaroo.yaml")

	configContent := `
site:
  base_url: https://kita.example.com
  username: parent@example.com
output:
  save_dir: /srv/photos
location:
  latitude: [52, 31, 12.5]
  latitude_ref: N
  longitude: [13, 24, 36]
  longitude_ref: E
  altitude: 34
browser:
  headless: false
  response_timeout: 45s
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, "https://kita.example.com", config.Site.BaseURL)
	assert.Equal(t, "/srv/photos", config.Output.SaveDir)
	assert.Equal(t, []float64{52, 31, 12.5}, config.Location.Latitude)
	assert.Equal(t, 34.0, config.Location.Altitude)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 45*time.Second, config.Browser.ResponseTimeout)
	assert.Equal(t, "warn", config.Logging.Level)

	// Untouched values keep their defaults
	assert.Equal(t, "/login", config.Site.LoginPath)
	assert.Equal(t, 500*time.Millisecond, config.Browser.IdleWindow)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Site.BaseURL = "https://kita.example.com"
		c.Site.Username = "parent@example.com"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.Site.BaseURL = "" },
			wantErr: "base URL is required",
		},
		{
			name:    "relative base URL",
			mutate:  func(c *Config) { c.Site.BaseURL = "kita.example.com" },
			wantErr: "absolute http(s) URL",
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Site.Username = "" },
			wantErr: "username is required",
		},
		{
			name:    "empty save dir",
			mutate:  func(c *Config) { c.Output.SaveDir = "" },
			wantErr: "save directory is required",
		},
		{
			name:    "short latitude",
			mutate:  func(c *Config) { c.Location.Latitude = []float64{52, 31} },
			wantErr: "latitude must be a",
		},
		{
			name:    "bad longitude ref",
			mutate:  func(c *Config) { c.Location.LongitudeRef = "X" },
			wantErr: "longitude_ref must be E or W",
		},
		{
			name:    "below sea level",
			mutate:  func(c *Config) { c.Location.Altitude = -3 },
			wantErr: "above sea level",
		},
		{
			name:    "zero response timeout",
			mutate:  func(c *Config) { c.Browser.ResponseTimeout = 0 },
			wantErr: "response timeout must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	c := DefaultConfig()
	c.Logging.Level = "loud"

	err := c.Validate()
	require.Error(t, err)

	lines := strings.Split(err.Error(), "\n")
	assert.Len(t, lines, 3)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"base-url":  "https://other.example.com",
		"save-dir":  "/data",
		"headless":  false,
		"log-level": "error",
		"username":  "",
	})

	assert.Equal(t, "https://other.example.com", config.Site.BaseURL)
	assert.Equal(t, "/data", config.Output.SaveDir)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "error", config.Logging.Level)
	assert.Empty(t, config.Site.Username)
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "kigaroo.yaml")
	configContent := `
site:
  base_url: https://file.example.com
  username: file-user
output:
  save_dir: /from/file
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	t.Setenv("HOME", tmpDir)
	t.Setenv("KIGAROO_USERNAME", "env-user")
	t.Setenv("KIGAROO_SAVE_DIR", "/from/env")

	config, err := Load(configPath, map[string]interface{}{
		"save-dir": "/from/flags",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", config.Site.BaseURL)
	assert.Equal(t, "env-user", config.Site.Username)
	assert.Equal(t, "/from/flags", config.Output.SaveDir)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Site.BaseURL = "https://kita.example.com"
	config.Location.Latitude = []float64{48, 8, 7.2}
	require.NoError(t, config.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, config.Site.BaseURL, loaded.Site.BaseURL)
	assert.Equal(t, config.Location.Latitude, loaded.Location.Latitude)
}

func TestMasked(t *testing.T) {
	config := DefaultConfig()
	config.Site.Password = "secret"

	masked := config.Masked()
	assert.Equal(t, "********", masked.Site.Password)
	assert.Equal(t, "secret", config.Site.Password)
}
