// Package gallery extracts albums and images from rendered gallery pages.
package gallery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kigaroo/pkg/errors"
	"kigaroo/pkg/models"
	"kigaroo/pkg/storage"
	"kigaroo/pkg/textnorm"
)

const (
	cardSelector    = `article[class="app-gridCard kgr-grid__cell"]`
	titleSelector   = "h3 a"
	dateSelector    = "div.kgr-card__footerContents > div.kgr-postfix__fluid"
	counterSelector = "div.kgr-centered.kgr-centered--vertically"
	imageSelector   = "a.kgr-card__image"

	// captureHour is the fixed time of day given to every album date
	captureHour = 10
)

// ParseAlbums extracts every album card from the catalog page in document
// order. Any card that does not match the expected layout fails the whole
// parse so that no partial catalog is returned.
func ParseAlbums(doc *goquery.Document, saveDir string) ([]models.Album, error) {
	var (
		albums []models.Album
		err    error
	)

	doc.Find(cardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		var album models.Album
		album, err = parseAlbumCard(card, saveDir)
		if err != nil {
			err = fmt.Errorf("album card %d: %w", i+1, err)
			return false
		}
		albums = append(albums, album)
		return true
	})
	if err != nil {
		return nil, err
	}

	return albums, nil
}

func parseAlbumCard(card *goquery.Selection, saveDir string) (models.Album, error) {
	link := card.Find(titleSelector).First()
	if link.Length() == 0 {
		return models.Album{}, errors.Catalog("find album title", fmt.Errorf("no element matches %q", titleSelector))
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return models.Album{}, errors.Catalog("find album link", fmt.Errorf("%q has no href", titleSelector))
	}

	date, err := ParseCaptureDate(card.Find(dateSelector).First().Text())
	if err != nil {
		return models.Album{}, errors.Catalog("parse album date", err)
	}

	counterText := strings.TrimSpace(card.Find(counterSelector).First().Text())
	count, err := strconv.Atoi(counterText)
	if err != nil {
		return models.Album{}, errors.Catalog("parse album counter", err)
	}
	if count < 0 {
		return models.Album{}, errors.Catalog("parse album counter", fmt.Errorf("negative image count %d", count))
	}

	title := strings.TrimSpace(textnorm.StripDecorations(link.Text()))

	return models.Album{
		Title:              title,
		SourceURL:          href,
		CaptureDate:        date,
		TargetDirectory:    storage.AlbumPath(saveDir, date, title),
		ExpectedImageCount: count,
	}, nil
}

// ParseCaptureDate parses a DD.MM.YYYY card date into 10:00 local time
func ParseCaptureDate(text string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(text), ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("date %q is not DD.MM.YYYY", text)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q is not DD.MM.YYYY: %w", text, err)
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	t := time.Date(year, time.Month(month), day, captureHour, 0, 0, 0, time.Local)
	// time.Date normalizes overflow, so 31.02 would silently become March
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date", text)
	}
	return t, nil
}

// ParseImages extracts the image cards of one album page in document order
func ParseImages(doc *goquery.Document, album *models.Album) ([]models.Image, error) {
	var (
		images []models.Image
		err    error
	)

	doc.Find(cardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		anchor := card.Find(imageSelector).First()
		if anchor.Length() == 0 {
			err = errors.Catalog("find image anchor", fmt.Errorf("image card %d has no %q", i+1, imageSelector))
			return false
		}
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			err = errors.Catalog("find image link", fmt.Errorf("image card %d has no href", i+1))
			return false
		}
		title, _ := anchor.Attr("title")

		images = append(images, models.Image{
			Title:     title,
			SourceURL: href,
			Album:     album,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	return images, nil
}
