// Package scraper mirrors a kigaroo gallery account to the local disk.
//
// A run logs in through the rendered login form, reads the album catalog
// and then synchronizes each album in catalog order:
//
//   - the completion check compares the number of .jpg files in the album
//     directory with the count shown on the album card; an exact match
//     skips the album without opening it
//   - otherwise every image card is downloaded by registering an
//     expectation for its URL, navigating to it and waiting for the
//     matching network response
//   - the response body gets the configured GPS tags, the album title as
//     image description and the album date as capture time, and is written
//     to <album dir>/<image title>.jpg
//
// Login and catalog failures always abort. Album failures abort unless a
// HaltPolicy such as SkipAlbumOn says otherwise. Files written before a
// failure are kept, so the next run resumes through the completion check.
//
// Usage:
//
//	page, err := browser.NewChrome(ctx, cfg.Site.BaseURL, cfg.Browser, log)
//	if err != nil {
//	    return err
//	}
//	defer page.Close()
//
//	s, err := scraper.New(cfg, page, embedder, scraper.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	summary, err := s.Run(ctx)
package scraper
