package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelAlbumLifecycle(t *testing.T) {
	m := NewModel()

	m.SkipAlbum("Fasching", "/photos/2021-03-05 - Fasching", 12)
	m.StartAlbum("Spring Trip", "/photos/2022-02-01 - Spring Trip", 2)
	assert.Equal(t, 0.0, m.AlbumProgress())

	m.SaveImage("/photos/2022-02-01 - Spring Trip", "img_001", 2048)
	assert.Equal(t, 0.5, m.AlbumProgress())
	m.SaveImage("/photos/2022-02-01 - Spring Trip", "img_002", 1024)

	albums := m.Albums()
	require.Len(t, albums, 2)
	assert.Equal(t, AlbumSkipped, albums[0].State)
	assert.Equal(t, AlbumCompleted, albums[1].State)
	assert.Equal(t, int64(3072), albums[1].Bytes)
	assert.Equal(t, 2, m.totalImages)

	counts := m.Counts()
	assert.Equal(t, 1, counts[AlbumSkipped])
	assert.Equal(t, 1, counts[AlbumCompleted])
}

func TestModelFailure(t *testing.T) {
	m := NewModel()
	m.StartAlbum("Spring Trip", "/d", 3)
	m.SaveImage("/d", "img_001", 10)

	_, _ = m.Update(ImageFailedMsg{Directory: "/d", Image: "img_002", Error: errors.New("status 404")})
	assert.Equal(t, AlbumFailed, m.Albums()[0].State)
	require.Len(t, m.logMessages, 1)
	assert.Equal(t, "ERROR", m.logMessages[0].Level)
	assert.Contains(t, m.logMessages[0].Message, "img_002")
}

func TestModelSaveUnknownAlbum(t *testing.T) {
	m := NewModel()
	m.SaveImage("/nowhere", "x", 1)
	assert.Empty(t, m.Albums())
	assert.Equal(t, 0, m.totalImages)
}

func TestModelDone(t *testing.T) {
	m := NewModel()
	_, _ = m.Update(AlbumStartMsg{Title: "A", Directory: "/a", Images: 1})
	_, _ = m.Update(DoneMsg{Error: errors.New("interrupted")})

	assert.True(t, m.done)
	assert.Equal(t, AlbumFailed, m.Albums()[0].State)

	_, cmd := m.Update(TickMsg{})
	assert.Nil(t, cmd)
}

func TestModelLogMsg(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(LogMsg{Level: "WARN", Message: "album shares its directory"})
	assert.Nil(t, cmd)

	require.Len(t, m.logMessages, 1)
	assert.Equal(t, "WARN", m.logMessages[0].Level)
	assert.Equal(t, "album shares its directory", m.logMessages[0].Message)
}

func TestModelLogTrim(t *testing.T) {
	m := NewModel()
	for i := 0; i < 60; i++ {
		m.AddLogMessage("INFO", "line")
	}
	assert.Len(t, m.logMessages, 50)
}

func TestModelView(t *testing.T) {
	m := NewModel()
	assert.Equal(t, "Initializing...", m.View())

	_, _ = m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	m.StartAlbum("Spring Trip", "/d", 2)
	view := m.View()
	assert.Contains(t, view, "Spring Trip")
	assert.Contains(t, view, "CURRENT ALBUM")
}

func TestQuitKey(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
