package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"kigaroo/pkg/metadata"
	"kigaroo/pkg/ui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.jpg>...",
	Short: "Show the tags embedded in downloaded images",
	Long: `Read the EXIF block of one or more downloaded images and print the
album title, capture time and GPS position that sync embedded.

When a configuration can be loaded, the embedded position is compared with
the configured location.`,
	Example: `  kigaroo inspect "downloads/2024-02-12 - Fasching/Fasching 1.jpg"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// positionTolerance is about a metre, well below the precision of the
// seconds exiftool writes
const positionTolerance = 1e-5

func runInspect(cmd *cobra.Command, args []string) error {
	var configured *metadata.GeoTags
	if cfg, err := loadConfig(nil); err == nil {
		if geo, err := metadata.GeoFromConfig(cfg.Location); err == nil {
			configured = &geo
		}
	}

	failed := 0
	for i, path := range args {
		if i > 0 {
			fmt.Println()
		}
		tags, err := inspectFile(path)
		if err != nil {
			ui.PrintError("Cannot read tags from "+path, err)
			failed++
			continue
		}
		fmt.Println(ui.Cyan(path))
		fmt.Print(tags.String())

		if configured == nil {
			continue
		}
		if ok, lat, lon := matchesLocation(tags, *configured); !ok {
			ui.PrintWarning("Position differs from the configured location", fmt.Sprintf("%.6f, %.6f", lat, lon))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(args))
	}
	return nil
}

func inspectFile(path string) (*metadata.Embedded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return metadata.ReadTags(f)
}

// matchesLocation reports whether the embedded position equals geo, and
// returns geo in decimal degrees
func matchesLocation(tags *metadata.Embedded, geo metadata.GeoTags) (ok bool, lat, lon float64) {
	lat, lon = geo.Decimal()
	if !tags.HasGPS {
		return false, lat, lon
	}
	ok = math.Abs(tags.Latitude-lat) < positionTolerance && math.Abs(tags.Longitude-lon) < positionTolerance
	return ok, lat, lon
}
