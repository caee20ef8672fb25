package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"kigaroo/pkg/browser"
	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/gallery"
	"kigaroo/pkg/logger"
	"kigaroo/pkg/metadata"
	"kigaroo/pkg/models"
	"kigaroo/pkg/storage"
)

const (
	usernameSelector = `input[name="_username"]`
	passwordSelector = `input[name="_password"]`
)

// HaltPolicy decides whether an album failure stops the run
type HaltPolicy func(err error) bool

// HaltOnError stops at the first failure
func HaltOnError(err error) bool {
	return true
}

// SkipAlbumOn keeps going past album failures of the given kinds and stops
// on anything else
func SkipAlbumOn(kinds ...errors.Kind) HaltPolicy {
	return func(err error) bool {
		kind := errors.KindOf(err)
		for _, k := range kinds {
			if k == kind {
				return false
			}
		}
		return true
	}
}

// Progress receives per-album and per-image events
type Progress interface {
	AlbumStarted(album *models.Album, images int)
	AlbumSkipped(album *models.Album, existing int)
	ImageSaved(image *models.Image, size int)
	ImageFailed(image *models.Image, err error)
}

type nopProgress struct{}

func (nopProgress) AlbumStarted(*models.Album, int)   {}
func (nopProgress) AlbumSkipped(*models.Album, int)   {}
func (nopProgress) ImageSaved(*models.Image, int)     {}
func (nopProgress) ImageFailed(*models.Image, error) {}

// AlbumFailure records an album that failed but did not stop the run
type AlbumFailure struct {
	Album string
	Err   error
}

// Summary describes a finished (or aborted) run
type Summary struct {
	RunID    string
	Albums   int
	Skipped  int
	Synced   int
	Images   int
	Failures []AlbumFailure
	Duration time.Duration
}

// Scraper mirrors the gallery of one account through a rendered page
type Scraper struct {
	page     browser.Page
	storage  *storage.Manager
	embedder metadata.Embedder
	config   *config.Config
	logger   logger.Logger
	progress Progress
	policy   HaltPolicy
	geo      metadata.GeoTags
	runID    string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithHaltPolicy sets how album failures are handled
func WithHaltPolicy(p HaltPolicy) Option {
	return func(s *Scraper) { s.policy = p }
}

// WithProgress sets the progress receiver
func WithProgress(p Progress) Option {
	return func(s *Scraper) { s.progress = p }
}

// New creates a Scraper. The page must be ready to navigate; the scraper
// does not close it.
func New(cfg *config.Config, page browser.Page, embedder metadata.Embedder, opts ...Option) (*Scraper, error) {
	geo, err := metadata.GeoFromConfig(cfg.Location)
	if err != nil {
		return nil, errors.Config("read location", err)
	}
	if _, err := url.Parse(cfg.Site.BaseURL); err != nil {
		return nil, errors.Config("parse base URL", err)
	}

	s := &Scraper{
		page:     page,
		embedder: embedder,
		config:   cfg,
		logger:   logger.GetLogger(),
		progress: nopProgress{},
		policy:   HaltOnError,
		geo:      geo,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("run_id", s.runID)

	s.storage, err = storage.NewManager(cfg.Output.SaveDir, s.logger)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Run logs in, reads the catalog and synchronizes every album in catalog
// order. Files written before a failure stay on disk.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: s.runID}
	defer func() {
		summary.Images = s.storage.SavedCount()
		summary.Duration = time.Since(start)
	}()

	if err := s.Login(ctx); err != nil {
		return summary, err
	}

	albums, err := s.Catalog(ctx)
	if err != nil {
		return summary, err
	}
	summary.Albums = len(albums)

	for i := range albums {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		album := &albums[i]
		_, skipped, err := s.SyncAlbum(ctx, album)
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"album": album.Title,
				"kind":  string(errors.KindOf(err)),
			}).Error("album failed")

			if s.policy(err) {
				return summary, fmt.Errorf("album %q: %w", album.Title, err)
			}
			summary.Failures = append(summary.Failures, AlbumFailure{Album: album.Title, Err: err})
			continue
		}
		if skipped {
			summary.Skipped++
		} else {
			summary.Synced++
		}
	}

	s.logger.InfoWithFields("run finished", map[string]interface{}{
		"albums":   summary.Albums,
		"synced":   summary.Synced,
		"skipped":  summary.Skipped,
		"images":   s.storage.SavedCount(),
		"failures": len(summary.Failures),
	})
	return summary, nil
}

// Login submits the credentials and checks that the site accepted them
func (s *Scraper) Login(ctx context.Context) error {
	site := s.config.Site
	log := s.logger.WithField("username", site.Username)
	log.Info("logging in")

	if err := s.page.Navigate(ctx, site.LoginPath); err != nil {
		return errors.Auth("open login page", err)
	}
	if err := s.page.WaitIdle(ctx); err != nil {
		return errors.Auth("open login page", err)
	}
	if err := s.page.Fill(ctx, usernameSelector, site.Username); err != nil {
		return errors.Auth("fill username", err)
	}
	if err := s.page.Fill(ctx, passwordSelector, site.Password); err != nil {
		return errors.Auth("fill password", err)
	}
	if err := s.page.Press(ctx, passwordSelector, "Enter"); err != nil {
		return errors.Auth("submit login form", err)
	}
	if err := s.page.WaitIdle(ctx); err != nil {
		return errors.Auth("submit login form", err)
	}

	loc, err := s.page.Location(ctx)
	if err != nil {
		return errors.Auth("read location", err)
	}
	if !strings.Contains(loc, site.LoggedInMarker) {
		return errors.Auth("login", fmt.Errorf("still on %s after submitting credentials", loc))
	}

	log.WithField("location", loc).Info("logged in")
	return nil
}

// Catalog opens the gallery listing and extracts all albums
func (s *Scraper) Catalog(ctx context.Context) ([]models.Album, error) {
	doc, err := s.render(ctx, s.config.Site.GalleryPath)
	if err != nil {
		return nil, fmt.Errorf("open gallery: %w", err)
	}

	albums, err := gallery.ParseAlbums(doc, s.storage.Root())
	if err != nil {
		return nil, err
	}

	s.logger.WithField("albums", len(albums)).Info("catalog loaded")
	return albums, nil
}

// SyncAlbum downloads every image of album unless the completion check
// says it is already on disk. It returns the number of images written.
func (s *Scraper) SyncAlbum(ctx context.Context, album *models.Album) (int, bool, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"album": album.Title,
		"dir":   album.TargetDirectory,
	})

	if prev, collided := s.storage.Claim(album.TargetDirectory, album.Title); collided {
		log.WithField("other_album", prev).Warn("album shares its directory with an earlier album; files are merged")
	}

	decision, existing, err := s.storage.Check(*album)
	if err != nil {
		return 0, false, err
	}
	if decision == storage.DecisionSkip {
		s.progress.AlbumSkipped(album, existing)
		return 0, true, nil
	}

	doc, err := s.render(ctx, album.SourceURL)
	if err != nil {
		return 0, false, fmt.Errorf("open album: %w", err)
	}
	images, err := gallery.ParseImages(doc, album)
	if err != nil {
		return 0, false, err
	}

	log.InfoWithFields("downloading album", map[string]interface{}{
		"expected": album.ExpectedImageCount,
		"found":    len(images),
	})
	s.progress.AlbumStarted(album, len(images))

	tags := metadata.TagsForAlbum(s.geo, album)
	saved := 0
	for i := range images {
		if err := ctx.Err(); err != nil {
			return saved, false, err
		}
		image := &images[i]
		if err := s.downloadImage(ctx, image, tags); err != nil {
			s.progress.ImageFailed(image, err)
			return saved, false, err
		}
		saved++
	}

	return saved, false, nil
}

// downloadImage runs one image through expect, navigate, wait, embed and
// save. Only the response to the image's own URL is accepted.
func (s *Scraper) downloadImage(ctx context.Context, image *models.Image, tags metadata.Tags) error {
	log := s.logger.WithFields(map[string]interface{}{
		"album": image.Album.Title,
		"image": image.Title,
	})

	exp, err := s.page.Expect(image.SourceURL)
	if err != nil {
		return err
	}

	navErr := s.page.Navigate(ctx, image.SourceURL)
	if navErr != nil {
		log.WithError(navErr).Debug("image navigation reported an error")
	} else if err := s.page.WaitIdle(ctx); err != nil {
		log.WithError(err).Warn("image page did not settle")
	}

	resp, err := exp.Wait(ctx, s.config.Browser.ResponseTimeout)
	if err != nil {
		if resp == nil && navErr != nil && ctx.Err() == nil {
			return errors.Download(exp.URL, 0, fmt.Errorf("navigation failed: %w", navErr))
		}
		return err
	}
	if !errors.IsSuccessStatus(resp.Status) {
		return errors.Download(exp.URL, resp.Status, nil)
	}

	data, err := s.embedder.Embed(resp.Body, tags)
	if err != nil {
		if errors.KindOf(err) == errors.KindUnknown {
			err = errors.Metadata("embed tags", err)
		}
		return err
	}

	dir := image.Album.TargetDirectory
	if err := s.storage.EnsureDir(dir); err != nil {
		return err
	}
	if err := s.storage.SaveImage(dir, image.Title, data); err != nil {
		return err
	}

	s.progress.ImageSaved(image, len(data))
	return nil
}

// render navigates to href, waits for quiescence and returns the DOM
func (s *Scraper) render(ctx context.Context, href string) (*goquery.Document, error) {
	if err := s.page.Navigate(ctx, href); err != nil {
		return nil, err
	}
	if err := s.page.WaitIdle(ctx); err != nil {
		return nil, err
	}
	return s.page.Document(ctx)
}
