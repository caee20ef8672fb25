package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
	"kigaroo/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kigaroo",
	Short: "Mirror a kigaroo photo gallery to your disk",
	Long: `kigaroo logs into a kigaroo kindergarten backend with a headless browser,
reads the photo gallery and downloads every album into its own directory.

Features:
  - Incremental sync: albums already complete on disk are skipped
  - GPS position, album title and album date embedded into every image
  - Passwords kept in the system keychain or an encrypted file
  - Progress line or full-screen dashboard (--tui)
  - Desktop notification when a sync finishes (--notify)

Running kigaroo without a subcommand is the same as 'kigaroo sync'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		switch cmd.Name() {
		case "version", "help", "inspect", "show":
		default:
			if !useTUI {
				ui.PrintLogo()
			}
		}
	},
}

// Execute runs the root command and returns the process exit status
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Red("Error: "+err.Error()))
		return errors.ExitCode(err)
	}
	return 0
}

func init() {
	logger.Version = version

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./kigaroo.yaml or $HOME/.config/kigaroo/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print one line per image instead of a progress bar")

	rootCmd.SetVersionTemplate(`kigaroo {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with the global flags merged in
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, errors.Config("load configuration", err)
	}
	return cfg, nil
}
