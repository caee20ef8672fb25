package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
	"kigaroo/pkg/models"
)

func newTestManager(t *testing.T) (*Manager, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	manager, err := NewManager(filepath.Join(t.TempDir(), "downloads"), log)
	require.NoError(t, err)
	return manager, log
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func TestNewManagerCreatesRoot(t *testing.T) {
	manager, _ := newTestManager(t)
	info, err := os.Stat(manager.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCountImages(t *testing.T) {
	manager, _ := newTestManager(t)
	dir := filepath.Join(manager.Root(), "2022-02-01 - Spring Trip")

	count, err := manager.CountImages(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "missing directory counts as zero")

	writeFiles(t, dir, "a.jpg", "b.jpg", "c.JPG", "d.png", "e.jpg.tmp")
	writeFiles(t, filepath.Join(dir, "nested"), "f.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "g.jpg"), 0755))

	count, err = manager.CountImages(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCheck(t *testing.T) {
	manager, log := newTestManager(t)
	album := models.Album{
		Title:              "Spring Trip",
		TargetDirectory:    filepath.Join(manager.Root(), "2022-02-01 - Spring Trip"),
		ExpectedImageCount: 3,
	}

	decision, existing, err := manager.Check(album)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, decision)
	assert.Equal(t, 0, existing)

	writeFiles(t, album.TargetDirectory, "1.jpg", "2.jpg")
	decision, existing, err = manager.Check(album)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, decision, "one fewer than expected")
	assert.Equal(t, 2, existing)
	assert.True(t, log.HasMessage("redownloading album"))

	writeFiles(t, album.TargetDirectory, "3.jpg")
	decision, existing, err = manager.Check(album)
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, decision)
	assert.Equal(t, 3, existing)
	assert.True(t, log.HasMessage("skipping already downloaded album"))

	writeFiles(t, album.TargetDirectory, "4.jpg")
	decision, _, err = manager.Check(album)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, decision, "more files than expected is not complete")
}

func TestCheckEmptyAlbum(t *testing.T) {
	manager, _ := newTestManager(t)
	album := models.Album{
		Title:           "Nothing yet",
		TargetDirectory: filepath.Join(manager.Root(), "2023-01-01 - Nothing yet"),
	}

	decision, _, err := manager.Check(album)
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, decision)
}

func TestSaveImage(t *testing.T) {
	manager, _ := newTestManager(t)
	dir := filepath.Join(manager.Root(), "album")
	require.NoError(t, manager.EnsureDir(dir))
	require.NoError(t, manager.EnsureDir(dir), "EnsureDir is idempotent")

	require.NoError(t, manager.SaveImage(dir, "IMG_0001", []byte("first")))
	require.NoError(t, manager.SaveImage(dir, "IMG_0001", []byte("second")))

	content, err := os.ReadFile(filepath.Join(dir, "IMG_0001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	_, err = os.Stat(filepath.Join(dir, "IMG_0001.jpg.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must be gone")
	assert.Equal(t, 2, manager.SavedCount())
}

func TestSaveImageRejectsPathTitles(t *testing.T) {
	manager, _ := newTestManager(t)
	dir := manager.Root()

	for _, title := range []string{"", ".", "..", "../escape", "a/b"} {
		err := manager.SaveImage(dir, title, []byte("x"))
		assert.True(t, errors.IsKind(err, errors.KindStorage), "title %q", title)
	}
}

func TestSaveImageMissingDir(t *testing.T) {
	manager, _ := newTestManager(t)
	err := manager.SaveImage(filepath.Join(manager.Root(), "missing"), "x", []byte("x"))
	assert.True(t, errors.IsKind(err, errors.KindStorage))
}

func TestClaim(t *testing.T) {
	manager, _ := newTestManager(t)

	_, collided := manager.Claim("/d/2022-02-01 - Trip", "Trip")
	assert.False(t, collided)

	prev, collided := manager.Claim("/d/2022-02-01 - Trip", "Trip 🚌")
	assert.True(t, collided)
	assert.Equal(t, "Trip", prev)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2022-02-01 - Spring Trip", "2022-02-01 - Spring Trip"},
		{`a/b\c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"tab\there", "tabhere"},
		{"trailing dots...", "trailing dots"},
		{"trailing space  ", "trailing space"},
		{"CON", "_CON"},
		{"com1.txt", "_com1.txt"},
		{"Übernachtung", "Übernachtung"},
		{"", "_"},
		{"???", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestSanitizeNameTruncates(t *testing.T) {
	long := strings.Repeat("ä", 200)
	got := SanitizeName(long)
	assert.LessOrEqual(t, len(got), 255)
	assert.Equal(t, strings.Repeat("ä", 127), got)
}

func TestAlbumPath(t *testing.T) {
	date := time.Date(2022, 2, 1, 10, 0, 0, 0, time.Local)
	assert.Equal(t, "2022-02-01 - Spring Trip", AlbumDirName(date, "Spring Trip"))
	assert.Equal(t, filepath.Join("/photos", "2022-02-01 - Ausflug Zoo"), AlbumPath("/photos", date, "Ausflug: Zoo"))

	// Pure function of date and title
	assert.Equal(t, AlbumPath("/p", date, "X"), AlbumPath("/p", date, "X"))
}
