package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AlbumStartMsg is sent when an album starts downloading
type AlbumStartMsg struct {
	Title     string
	Directory string
	Images    int
}

// AlbumSkipMsg is sent when the completion check skips an album
type AlbumSkipMsg struct {
	Title     string
	Directory string
	Existing  int
}

// ImageSavedMsg is sent after an image is written
type ImageSavedMsg struct {
	Directory string
	Image     string
	Size      int
}

// ImageFailedMsg is sent when an image fails and takes its album with it
type ImageFailedMsg struct {
	Directory string
	Image     string
	Error     error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg ends the run
type DoneMsg struct {
	Summary string
	Error   error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = clamp(msg.Width/2-12, 10, 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case AlbumStartMsg:
		m.StartAlbum(msg.Title, msg.Directory, msg.Images)
		m.AddLogMessage("INFO", "Downloading: "+msg.Title)
		return m, nil

	case AlbumSkipMsg:
		m.SkipAlbum(msg.Title, msg.Directory, msg.Existing)
		m.AddLogMessage("INFO", "Already complete: "+msg.Title)
		return m, nil

	case ImageSavedMsg:
		m.SaveImage(msg.Directory, msg.Image, msg.Size)
		return m, nil

	case ImageFailedMsg:
		m.FailAlbum(msg.Directory, msg.Error)
		m.AddLogMessage("ERROR", "Failed: "+msg.Image+" - "+msg.Error.Error())
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.Finish(msg.Summary, msg.Error)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", msg.Error.Error())
		} else {
			m.AddLogMessage("SUCCESS", msg.Summary)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
