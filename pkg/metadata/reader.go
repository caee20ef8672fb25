package metadata

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"kigaroo/pkg/errors"
)

// Embedded is the subset of EXIF data this tool writes, as read back from
// an image
type Embedded struct {
	Description string
	Captured    time.Time
	HasGPS      bool
	Latitude    float64
	Longitude   float64
	Altitude    float64
}

// ReadTags decodes the EXIF block of a JPEG stream
func ReadTags(r io.Reader) (*Embedded, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, errors.Metadata("decode exif", err)
	}

	out := &Embedded{}

	if tag, err := x.Get(exif.ImageDescription); err == nil {
		desc, err := tag.StringVal()
		if err != nil {
			return nil, errors.Metadata("read image description", err)
		}
		out.Description = strings.TrimRight(desc, "\x00")
	}

	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		s, err := tag.StringVal()
		if err != nil {
			return nil, errors.Metadata("read capture time", err)
		}
		captured, err := time.ParseInLocation(TimestampLayout, strings.TrimRight(s, "\x00"), time.Local)
		if err != nil {
			return nil, errors.Metadata("parse capture time", err)
		}
		out.Captured = captured
	}

	if lat, lon, err := x.LatLong(); err == nil {
		out.HasGPS = true
		out.Latitude = lat
		out.Longitude = lon
	}

	if tag, err := x.Get(exif.GPSAltitude); err == nil {
		num, den, err := tag.Rat2(0)
		if err != nil {
			return nil, errors.Metadata("read altitude", err)
		}
		if den != 0 {
			out.Altitude = float64(num) / float64(den)
		}
	}

	return out, nil
}

// String renders the tags one per line
func (e *Embedded) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Description: %s\n", e.Description)
	if !e.Captured.IsZero() {
		fmt.Fprintf(&b, "Captured:    %s\n", FormatTimestamp(e.Captured))
	}
	if e.HasGPS {
		fmt.Fprintf(&b, "Position:    %.6f, %.6f\n", e.Latitude, e.Longitude)
		fmt.Fprintf(&b, "Altitude:    %.1f m\n", e.Altitude)
	}
	return b.String()
}
