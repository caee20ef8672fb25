// Package metadata embeds and reads the EXIF tags written into mirrored
// images: a fixed GPS position, an ASCII album description and the album's
// capture time.
package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kigaroo/pkg/config"
	"kigaroo/pkg/models"
	"kigaroo/pkg/textnorm"
)

// TimestampLayout is the EXIF date/time string format
const TimestampLayout = "2006:01:02 15:04:05"

// GeoTags is the GPS position applied to every image. Latitude and
// longitude are degrees, minutes, seconds; direction comes from the refs.
// Altitude is always above sea level.
type GeoTags struct {
	Latitude     [3]float64
	LatitudeRef  string
	Longitude    [3]float64
	LongitudeRef string
	Altitude     float64
}

// Tags is everything embedded into one image
type Tags struct {
	Geo         GeoTags
	Description string
	Captured    time.Time
}

// Embedder writes tags into encoded image bytes and returns the re-encoded
// image. Implementations must not modify data.
type Embedder interface {
	Embed(data []byte, tags Tags) ([]byte, error)
}

// GeoFromConfig converts the configured location into GeoTags
func GeoFromConfig(loc config.LocationConfig) (GeoTags, error) {
	if len(loc.Latitude) != 3 || len(loc.Longitude) != 3 {
		return GeoTags{}, fmt.Errorf("location needs degree, minute, second triples")
	}

	geo := GeoTags{
		LatitudeRef:  loc.LatitudeRef,
		LongitudeRef: loc.LongitudeRef,
		Altitude:     loc.Altitude,
	}
	copy(geo.Latitude[:], loc.Latitude)
	copy(geo.Longitude[:], loc.Longitude)
	return geo, nil
}

// TagsForAlbum builds the tag set for any image of album
func TagsForAlbum(geo GeoTags, album *models.Album) Tags {
	return Tags{
		Geo:         geo,
		Description: textnorm.Description(album.Title),
		Captured:    album.CaptureDate,
	}
}

// FormatTimestamp renders t in the EXIF date/time convention
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Decimal returns signed decimal degrees for latitude and longitude
func (g GeoTags) Decimal() (lat, lon float64) {
	lat = dmsToDecimal(g.Latitude)
	lon = dmsToDecimal(g.Longitude)
	if g.LatitudeRef == "S" {
		lat = -lat
	}
	if g.LongitudeRef == "W" {
		lon = -lon
	}
	return lat, lon
}

func dmsToDecimal(dms [3]float64) float64 {
	return dms[0] + dms[1]/60 + dms[2]/3600
}

// formatDMS renders a triple as "deg min sec", the form exiftool accepts
// for GPS coordinates
func formatDMS(dms [3]float64) string {
	parts := make([]string, len(dms))
	for i, v := range dms {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}
