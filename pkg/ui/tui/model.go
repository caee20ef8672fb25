package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AlbumState is where an album is in the run
type AlbumState int

const (
	AlbumPending AlbumState = iota
	AlbumActive
	AlbumSkipped
	AlbumCompleted
	AlbumFailed
)

func (s AlbumState) String() string {
	switch s {
	case AlbumActive:
		return "active"
	case AlbumSkipped:
		return "skipped"
	case AlbumCompleted:
		return "completed"
	case AlbumFailed:
		return "failed"
	default:
		return "pending"
	}
}

// AlbumItem is one row of the album list
type AlbumItem struct {
	Title     string
	Directory string
	Images    int
	Saved     int
	Bytes     int64
	State     AlbumState
	StartTime time.Time
	Error     error
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the bubbletea model of a sync run
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	albums       []*AlbumItem
	index        map[string]*AlbumItem
	current      *AlbumItem
	currentImage string

	totalImages int
	totalBytes  int64
	startTime   time.Time

	width          int
	height         int
	showHelp       bool
	done           bool
	summary        string
	runErr         error
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates an empty model
func NewModel() *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return &Model{
		spinner:        s,
		progress:       p,
		index:          make(map[string]*AlbumItem),
		startTime:      time.Now(),
		maxLogMessages: 50,
	}
}

// Init starts the spinner and the refresh tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// album returns the row for dir, creating it on first sight
func (m *Model) album(title, dir string) *AlbumItem {
	if a, ok := m.index[dir]; ok {
		return a
	}
	a := &AlbumItem{Title: title, Directory: dir}
	m.index[dir] = a
	m.albums = append(m.albums, a)
	return a
}

// StartAlbum marks an album as downloading
func (m *Model) StartAlbum(title, dir string, images int) {
	a := m.album(title, dir)
	a.State = AlbumActive
	a.Images = images
	a.Saved = 0
	a.StartTime = time.Now()
	m.current = a
	m.currentImage = ""
}

// SkipAlbum marks an album as already complete on disk
func (m *Model) SkipAlbum(title, dir string, existing int) {
	a := m.album(title, dir)
	a.State = AlbumSkipped
	a.Images = existing
	a.Saved = existing
}

// SaveImage counts a written image for the current album
func (m *Model) SaveImage(dir, image string, size int) {
	a, ok := m.index[dir]
	if !ok {
		return
	}
	a.Saved++
	a.Bytes += int64(size)
	m.totalImages++
	m.totalBytes += int64(size)
	m.currentImage = image

	if a.Images > 0 && a.Saved >= a.Images {
		a.State = AlbumCompleted
	}
}

// FailAlbum marks an album as failed
func (m *Model) FailAlbum(dir string, err error) {
	if a, ok := m.index[dir]; ok {
		a.State = AlbumFailed
		a.Error = err
	}
}

// Finish records the end of the run
func (m *Model) Finish(summary string, err error) {
	m.done = true
	m.summary = summary
	m.runErr = err
	if m.current != nil && m.current.State == AlbumActive {
		if err != nil {
			m.current.State = AlbumFailed
			m.current.Error = err
		} else {
			m.current.State = AlbumCompleted
		}
	}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = errorRed
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Albums returns the albums in the order they were first seen
func (m *Model) Albums() []*AlbumItem {
	return m.albums
}

// Counts returns how many albums are in each state
func (m *Model) Counts() map[AlbumState]int {
	counts := make(map[AlbumState]int)
	for _, a := range m.albums {
		counts[a.State]++
	}
	return counts
}

// AlbumProgress returns the fraction of the current album already saved
func (m *Model) AlbumProgress() float64 {
	if m.current == nil || m.current.Images == 0 {
		return 0
	}
	p := float64(m.current.Saved) / float64(m.current.Images)
	if p > 1 {
		p = 1
	}
	return p
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
