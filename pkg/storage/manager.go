package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
	"kigaroo/pkg/models"
)

// Decision is the outcome of the completion check for one album
type Decision int

const (
	// DecisionDownload means the album is fetched again in full
	DecisionDownload Decision = iota
	// DecisionSkip means the on-disk image count already matches
	DecisionSkip
)

func (d Decision) String() string {
	if d == DecisionSkip {
		return "skip"
	}
	return "download"
}

// Manager handles album directories and image files under the save root
type Manager struct {
	root   string
	logger logger.Logger

	mu sync.Mutex
	// claims maps an album directory to the first title that used it this run
	claims map[string]string
	saved  int
}

// NewManager creates a storage manager, creating root if needed
func NewManager(root string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Storage("create save directory", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		root:   root,
		logger: log,
		claims: make(map[string]string),
	}, nil
}

// Root returns the save root
func (m *Manager) Root() string {
	return m.root
}

// CountImages counts the .jpg files directly inside dir. A missing
// directory counts as zero; subdirectories are not searched.
func (m *Manager) CountImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Storage("count images", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match("*.jpg", entry.Name()); ok {
			count++
		}
	}
	return count, nil
}

// Check compares the number of images on disk with the album's expected
// count. Only an exact match skips the album.
func (m *Manager) Check(album models.Album) (Decision, int, error) {
	existing, err := m.CountImages(album.TargetDirectory)
	if err != nil {
		return DecisionDownload, 0, err
	}

	decision := DecisionDownload
	if existing == album.ExpectedImageCount {
		decision = DecisionSkip
	}
	logger.LogAlbumDecision(m.logger, album.Title, album.TargetDirectory, album.ExpectedImageCount, existing, decision == DecisionSkip)

	return decision, existing, nil
}

// Claim records that title writes into dir during this run. When another
// album already claimed the same directory its title is returned and both
// albums share the directory.
func (m *Manager) Claim(dir, title string) (previous string, collided bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.claims[dir]; ok {
		return prev, true
	}
	m.claims[dir] = title
	return "", false
}

// EnsureDir creates an album directory; it is a no-op if it exists
func (m *Manager) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Storage("create album directory", err)
	}
	return nil
}

// ImagePath returns where an image with the given title is stored
func (m *Manager) ImagePath(dir, title string) string {
	return filepath.Join(dir, title+".jpg")
}

// SaveImage writes data to <dir>/<title>.jpg, replacing any existing file
func (m *Manager) SaveImage(dir, title string, data []byte) error {
	if title == "" || title == "." || title == ".." || strings.ContainsAny(title, `/`+string(os.PathSeparator)) {
		return errors.Storage("save image", fmt.Errorf("image title %q is not a usable file name", title))
	}

	filename := m.ImagePath(dir, title)

	// .tmp files are never counted by CountImages
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return errors.Storage("write image", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return errors.Storage("rename image", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	logger.LogImageSaved(m.logger, filename, len(data))
	return nil
}

// SavedCount returns how many images this manager has written
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
