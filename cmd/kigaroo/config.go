package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kigaroo/pkg/auth"
	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage kigaroo configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (KIGAROO_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'kigaroo.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The site password is masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - The location tag set
  - Path accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# kigaroo configuration file
#
# Every option can also be set with an environment variable, for example
# KIGAROO_BASE_URL, KIGAROO_USERNAME, KIGAROO_PASSWORD or KIGAROO_SAVE_DIR.

# Gallery site
site:
  # Address of your kindergarten's kigaroo instance (required)
  base_url: "https://YOUR-KINDERGARTEN.kigaroo.de"

  # Login name (required)
  username: ""

  # Password (optional)
  # Prefer 'kigaroo auth login' to keep it in the system keychain
  password: ""

  # Paths below the base URL
  login_path: "/login"
  gallery_path: "/backend/gallery/"

  # The address after a successful login contains this text
  logged_in_marker: "backend"

# Where albums are written
output:
  # One directory per album, named "<YYYY-MM-DD> <album title>"
  save_dir: "./downloads"

# GPS position embedded into every image
location:
  # Degrees, minutes, seconds
  latitude: [52, 31, 12.0]
  latitude_ref: "N"
  longitude: [13, 24, 18.0]
  longitude_ref: "E"

  # Meters above sea level
  altitude: 34

# Headless browser
browser:
  # Set to false to watch the browser work
  headless: true

  # User agent string (optional)
  # Leave empty to use the browser's default
  user_agent: ""

  # How long a page may take to load
  navigation_timeout: 60s

  # The page counts as loaded after this long without network traffic
  idle_window: 500ms

  # How long to wait for an image response
  response_timeout: 30s

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to the console only
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "kigaroo.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return errors.Config("create config file", fmt.Errorf("%s already exists", configPath))
	}

	if err := writeExampleConfig(configPath); err != nil {
		return errors.Config("create config file", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file and set base_url, username and location")
	fmt.Println("2. Store your password with 'kigaroo auth login'")
	fmt.Println("3. Run 'kigaroo config validate' to check the configuration")
	fmt.Println("4. Start mirroring with 'kigaroo sync'")
	return nil
}

func writeExampleConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// the file may end up holding a password
	return os.WriteFile(path, []byte(exampleConfig), 0600)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	masked := cfg.Masked()
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (KIGAROO_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	} else {
		ui.PrintInfo("Validating configuration", "(default locations)")
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	problems, warnings := checkConfig(cfg)

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return errors.Config("validate config", fmt.Errorf("%d problems found", len(problems)))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Site: %s\n", cfg.Site.BaseURL)
	fmt.Printf("  Username: %s\n", cfg.Site.Username)
	fmt.Printf("  Save directory: %s\n", cfg.Output.SaveDir)
	fmt.Printf("  Location: %v %s, %v %s\n", cfg.Location.Latitude, cfg.Location.LatitudeRef, cfg.Location.Longitude, cfg.Location.LongitudeRef)
	fmt.Printf("  Headless: %t\n", cfg.Browser.Headless)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkConfig performs the checks that need the filesystem or the
// credential store
func checkConfig(cfg *config.Config) (problems, warnings []string) {
	if err := os.MkdirAll(cfg.Output.SaveDir, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create save directory: %v", err))
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if cfg.Site.Password == "" {
		stored := false
		if manager, err := auth.NewManager(); err == nil {
			if _, err := manager.Password(auth.Login{Site: cfg.Site.BaseURL, Username: cfg.Site.Username}); err == nil {
				stored = true
			}
		}
		if !stored {
			warnings = append(warnings, "No password configured or stored for "+cfg.Site.Username)
		}
	}

	if cfg.Location.Altitude == 0 && allZero(cfg.Location.Latitude) && allZero(cfg.Location.Longitude) {
		warnings = append(warnings, "Location is 0,0; images will be tagged in the Gulf of Guinea")
	}

	return problems, warnings
}

func allZero(vs []float64) bool {
	for _, v := range vs {
		if v != 0 {
			return false
		}
	}
	return true
}
