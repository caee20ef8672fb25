package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"kigaroo/pkg/models"
)

// TUI is a full-screen dashboard for one sync run. It satisfies the
// scraper's progress interface.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance
func NewTUI(opts ...tea.ProgramOption) *TUI {
	model := NewModel()
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Start runs the TUI until the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) AlbumStarted(album *models.Album, images int) {
	t.Send(AlbumStartMsg{Title: album.Title, Directory: album.TargetDirectory, Images: images})
}

func (t *TUI) AlbumSkipped(album *models.Album, existing int) {
	t.Send(AlbumSkipMsg{Title: album.Title, Directory: album.TargetDirectory, Existing: existing})
}

func (t *TUI) ImageSaved(image *models.Image, size int) {
	t.Send(ImageSavedMsg{Directory: image.Album.TargetDirectory, Image: image.Title, Size: size})
}

func (t *TUI) ImageFailed(image *models.Image, err error) {
	t.Send(ImageFailedMsg{Directory: image.Album.TargetDirectory, Image: image.Title, Error: err})
}

// Done reports the end of the run; the dashboard stays up until the user quits
func (t *TUI) Done(summary string, err error) {
	t.Send(DoneMsg{Summary: summary, Error: err})
}

// Log sends a log line to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}
