package metadata

import (
	"fmt"
	"os"
	"strconv"

	"github.com/barasher/go-exiftool"

	"kigaroo/pkg/errors"
	"kigaroo/pkg/textnorm"
)

// ExiftoolEmbedder writes EXIF tags through a long-running exiftool process
type ExiftoolEmbedder struct {
	et      *exiftool.Exiftool
	tempDir string
}

// NewExiftoolEmbedder starts exiftool. Scratch files are created in tempDir,
// or the system temp directory when it is empty.
func NewExiftoolEmbedder(tempDir string) (*ExiftoolEmbedder, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, errors.Config("start exiftool", fmt.Errorf("could not initialize exiftool: %w", err))
	}
	return &ExiftoolEmbedder{et: et, tempDir: tempDir}, nil
}

// Embed writes tags into a copy of data and returns the tagged image
func (e *ExiftoolEmbedder) Embed(data []byte, tags Tags) ([]byte, error) {
	tmp, err := os.CreateTemp(e.tempDir, "kigaroo-*.jpg")
	if err != nil {
		return nil, errors.Metadata("create scratch file", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, errors.Metadata("write scratch file", err)
	}

	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	setTags(fm, tags)

	fms := []exiftool.FileMetadata{fm}
	e.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return nil, errors.Metadata("write exif", fms[0].Err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Metadata("read tagged image", err)
	}
	return out, nil
}

func setTags(fm exiftool.FileMetadata, tags Tags) {
	geo := tags.Geo
	fm.SetString("EXIF:GPSVersionID", "2.2.0.0")
	fm.SetString("EXIF:GPSLatitude", formatDMS(geo.Latitude))
	fm.SetString("EXIF:GPSLatitudeRef", geo.LatitudeRef)
	fm.SetString("EXIF:GPSLongitude", formatDMS(geo.Longitude))
	fm.SetString("EXIF:GPSLongitudeRef", geo.LongitudeRef)
	fm.SetString("EXIF:GPSAltitude", strconv.FormatFloat(geo.Altitude, 'f', -1, 64))
	// Raw value 0 means above sea level
	fm.SetString("EXIF:GPSAltitudeRef#", "0")

	// exiftool reads one argument per line; "-Tag=" deletes a tag and
	// "-Tag^=" writes an empty string
	if desc := textnorm.SingleLine(tags.Description); desc != "" {
		fm.SetString("EXIF:ImageDescription", desc)
	} else {
		fm.SetString("EXIF:ImageDescription^", "")
	}
	fm.SetString("EXIF:DateTimeOriginal", FormatTimestamp(tags.Captured))
}

// Close stops the exiftool process
func (e *ExiftoolEmbedder) Close() error {
	return e.et.Close()
}
