package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
	"kigaroo/pkg/metadata"
	"kigaroo/pkg/scraper"
)

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "", summaryLine(nil))

	s := &scraper.Summary{Albums: 5, Synced: 2, Skipped: 3, Images: 41, Duration: 83*time.Second + 400*time.Millisecond}
	assert.Equal(t, "5 albums: 2 synced, 3 already complete, 41 images saved in 1m23s", summaryLine(s))

	s.Failures = []scraper.AlbumFailure{{Album: "Fasching", Err: errors.Download("u", 500, nil)}}
	assert.Contains(t, summaryLine(s), ", 1 failed")

	s.RunID = "0b9e7c1e-2f4a-4d7e-9a57-6c1f2d3e4f50"
	assert.True(t, strings.HasSuffix(summaryLine(s), " (run 0b9e7c1e-2f4a-4d7e-9a57-6c1f2d3e4f50)"))
}

type recordedLog struct {
	level, message string
}

type logRecorder struct {
	lines []recordedLog
}

func (r *logRecorder) Log(level, format string, args ...interface{}) {
	r.lines = append(r.lines, recordedLog{level, fmt.Sprintf(format, args...)})
}

func TestDashboardHook(t *testing.T) {
	var buf bytes.Buffer
	base, err := logger.NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	rec := &logRecorder{}
	log := logger.WithHook(base, dashboardHook{rec})

	log.Debug("navigating")
	log.WithField("album", "Fasching").Info("catalog loaded")
	log.Warn("album shares its directory with an earlier album; files are merged")
	log.Error("100% done")

	assert.Equal(t, []recordedLog{
		{"INFO", "catalog loaded"},
		{"WARN", "album shares its directory with an earlier album; files are merged"},
		{"ERROR", "100% done"},
	}, rec.lines)
	assert.Contains(t, buf.String(), "navigating")
}

func TestExampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kigaroo.yaml")
	require.NoError(t, writeExampleConfig(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, "https://YOUR-KINDERGARTEN.kigaroo.de", cfg.Site.BaseURL)
	assert.Equal(t, []float64{52, 31, 12.0}, cfg.Location.Latitude)
	assert.Equal(t, 30*time.Second, cfg.Browser.ResponseTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.IdleWindow)

	// only the username is missing from the template
	cfg.Site.Username = "parent"
	assert.NoError(t, cfg.Validate())
}

func TestCheckConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Site.Username = "parent"
	cfg.Site.Password = "secret"
	cfg.Output.SaveDir = filepath.Join(dir, "out")
	cfg.Logging.File = filepath.Join(dir, "logs", "kigaroo.log")

	problems, warnings := checkConfig(cfg)
	assert.Empty(t, problems)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Location is 0,0")
	assert.DirExists(t, cfg.Output.SaveDir)
	assert.DirExists(t, filepath.Join(dir, "logs"))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.Output.SaveDir = filepath.Join(blocker, "out")
	problems, _ = checkConfig(cfg)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "Cannot create save directory")
}

func TestMatchesLocation(t *testing.T) {
	geo := metadata.GeoTags{
		Latitude:     [3]float64{52, 31, 12},
		LatitudeRef:  "N",
		Longitude:    [3]float64{13, 24, 36},
		LongitudeRef: "W",
	}

	ok, lat, lon := matchesLocation(&metadata.Embedded{HasGPS: true, Latitude: 52.52, Longitude: -13.41}, geo)
	assert.True(t, ok)
	assert.InDelta(t, 52.52, lat, 1e-9)
	assert.InDelta(t, -13.41, lon, 1e-9)

	ok, _, _ = matchesLocation(&metadata.Embedded{HasGPS: true, Latitude: 52.52, Longitude: 13.41}, geo)
	assert.False(t, ok)

	ok, _, _ = matchesLocation(&metadata.Embedded{}, geo)
	assert.False(t, ok)
}

func TestInspectFileMissing(t *testing.T) {
	_, err := inspectFile(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}
