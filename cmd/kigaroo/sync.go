package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kigaroo/pkg/auth"
	"kigaroo/pkg/browser"
	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
	"kigaroo/pkg/metadata"
	"kigaroo/pkg/scraper"
	"kigaroo/pkg/ui"
	"kigaroo/pkg/ui/tui"
)

var (
	// Sync command flags
	saveDir   string
	baseURL   string
	username  string
	headless  bool
	keepGoing bool
	notify    bool
	useTUI    bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download all albums that are not complete on disk",
	Long: `Log into the gallery, read the album catalog and download every album
whose directory does not already hold as many images as the album card shows.

Each album is written to <save_dir>/<YYYY-MM-DD - title>/ and every image gets
the configured GPS position, the album title and the album date embedded.

The password is taken from the configuration, the system keychain, the
encrypted credential file or KIGAROO_PASSWORD, in that order. Store it once
with 'kigaroo auth login'.`,
	Example: `  # Sync with settings from kigaroo.yaml
  kigaroo sync

  # Sync into a different directory and watch the browser
  kigaroo sync --save-dir ~/Pictures/kita --headless=false

  # Continue with the next album when an image fails
  kigaroo sync --keep-going

  # Full-screen dashboard and a desktop notification at the end
  kigaroo sync --tui --notify`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	for _, cmd := range []*cobra.Command{syncCmd, rootCmd} {
		cmd.Flags().StringVarP(&saveDir, "save-dir", "o", "", "directory albums are written to")
		cmd.Flags().StringVar(&baseURL, "base-url", "", "gallery site URL, e.g. https://example.kigaroo.de")
		cmd.Flags().StringVarP(&username, "username", "u", "", "gallery login name")
		cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
		cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "skip an album whose download fails instead of stopping")
		cmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the sync finishes")
		cmd.Flags().BoolVar(&useTUI, "tui", false, "show a full-screen dashboard")
	}

	rootCmd.RunE = runSync
}

func runSync(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if saveDir != "" {
		flags["save-dir"] = saveDir
	}
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if username != "" {
		flags["username"] = username
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	var log logger.Logger
	if useTUI {
		log, err = logger.NewFileOnly(&cfg.Logging)
	} else {
		err = logger.Initialize(&cfg.Logging)
		log = logger.GetLogger()
	}
	if err != nil {
		return errors.Config("initialize logging", err)
	}
	log.WithField("version", version).Info("kigaroo starting")

	if err := resolvePassword(cfg, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := metadata.NewExiftoolEmbedder("")
	if err != nil {
		return err
	}
	defer embedder.Close()

	page, err := browser.NewChrome(ctx, cfg.Site.BaseURL, cfg.Browser, log)
	if err != nil {
		return err
	}
	defer page.Close()

	opts := []scraper.Option{scraper.WithLogger(log)}
	if keepGoing {
		opts = append(opts, scraper.WithHaltPolicy(scraper.SkipAlbumOn(errors.KindDownload, errors.KindCatalog, errors.KindMetadata)))
	}

	if useTUI {
		return syncWithTUI(ctx, cfg, log, page, embedder, opts)
	}

	var display *ui.ProgressDisplay
	if !quiet {
		display = ui.NewProgressDisplay(os.Stdout, verbose)
		opts = append(opts, scraper.WithProgress(display))
	}

	s, err := scraper.New(cfg, page, embedder, opts...)
	if err != nil {
		return err
	}

	ui.PrintInfo("Gallery", cfg.Site.BaseURL)
	ui.PrintInfo("Save dir", cfg.Output.SaveDir)

	summary, runErr := s.Run(ctx)
	if display != nil {
		display.Complete()
	}
	return finishSync(log, summary, runErr)
}

func syncWithTUI(ctx context.Context, cfg *config.Config, log logger.Logger, page browser.Page, embedder metadata.Embedder, opts []scraper.Option) error {
	dashboard := tui.NewTUI()
	// a signal closes the dashboard the same way pressing q does
	stopDashboard := context.AfterFunc(ctx, dashboard.Stop)
	defer stopDashboard()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log = logger.WithHook(log, dashboardHook{dashboard})
	opts = append(opts, scraper.WithLogger(log), scraper.WithProgress(dashboard))
	s, err := scraper.New(cfg, page, embedder, opts...)
	if err != nil {
		return err
	}

	type result struct {
		summary *scraper.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := s.Run(ctx)
		dashboard.Done(summaryLine(summary), err)
		done <- result{summary, err}
	}()

	tuiErr := dashboard.Start()
	// quitting the dashboard early cancels the run
	cancel()
	res := <-done

	ui.SetQuietMode(true)
	err = finishSync(log, res.summary, res.err)
	if err == nil && tuiErr != nil {
		return fmt.Errorf("dashboard: %w", tuiErr)
	}
	return err
}

// dashboardHook mirrors log events into the dashboard's log panel
type dashboardHook struct {
	dashboard interface {
		Log(level, format string, args ...interface{})
	}
}

func (h dashboardHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.InfoLevel || msg == "" {
		return
	}
	h.dashboard.Log(strings.ToUpper(level.String()), "%s", msg)
}

func finishSync(log logger.Logger, summary *scraper.Summary, runErr error) error {
	notifier := ui.NewNotifier()

	if runErr != nil {
		log.WithError(runErr).WithField("kind", string(errors.KindOf(runErr))).Error("sync failed")
		if notify {
			notifier.SendError("kigaroo sync failed", runErr.Error())
		}
		return runErr
	}

	for _, f := range summary.Failures {
		ui.PrintWarning("Album skipped after error", fmt.Sprintf("%s: %v", f.Album, f.Err))
	}

	line := summaryLine(summary)
	ui.PrintSuccess(line)
	if notify {
		notifier.SendSuccess("kigaroo sync finished", line)
	}
	return nil
}

func summaryLine(s *scraper.Summary) string {
	if s == nil {
		return ""
	}
	line := fmt.Sprintf("%d albums: %d synced, %d already complete, %d images saved in %s",
		s.Albums, s.Synced, s.Skipped, s.Images, s.Duration.Round(time.Second))
	if len(s.Failures) > 0 {
		line += fmt.Sprintf(", %d failed", len(s.Failures))
	}
	if s.RunID != "" {
		line += " (run " + s.RunID + ")"
	}
	return line
}

// resolvePassword fills cfg.Site.Password from the credential stores when
// the configuration does not carry one
func resolvePassword(cfg *config.Config, log logger.Logger) error {
	if cfg.Site.Password != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return errors.Config("open credential store", err)
	}

	password, err := manager.Password(auth.Login{Site: cfg.Site.BaseURL, Username: cfg.Site.Username})
	if err != nil {
		ui.PrintError("No password found for " + cfg.Site.Username)
		auth.ShowSetupGuide(os.Stderr, cfg.Site.Username)
		return errors.Config("resolve password", err)
	}

	log.WithField("username", cfg.Site.Username).Debug("using stored password")
	cfg.Site.Password = password
	return nil
}
