package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
╔═════════════════════════════════════════════════╗
║  ██╗  ██╗██╗ ██████╗  █████╗ ██████╗  ██████╗   ║
║  ██║ ██╔╝██║██╔════╝ ██╔══██╗██╔══██╗██╔═══██╗  ║
║  █████╔╝ ██║██║  ███╗███████║██████╔╝██║   ██║  ║
║  ██╔═██╗ ██║██║   ██║██╔══██║██╔══██╗██║   ██║  ║
║  ██║  ██╗██║╚██████╔╝██║  ██║██║  ██║╚██████╔╝  ║
║  ╚═╝  ╚═╝╚═╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝   ║
║             GALLERY MIRROR                      ║
╚═════════════════════════════════════════════════╝`

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	width := (m.width - 4) / 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCurrentPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderAlbumsPanel(width),
		m.renderLogsPanel(width),
	)

	sections := []string{
		logoStyle.Width(m.width).Render(logo),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else if m.done {
		sections = append(sections, helpStyle.Render("Sync finished. Press q to exit"))
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" SYNC STATS ")
	counts := m.Counts()

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(time.Since(m.startTime)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Albums:"), statsValueStyle.Render(fmt.Sprintf("%d seen, %d skipped, %d failed", len(m.albums), counts[AlbumSkipped], counts[AlbumFailed]))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Images Saved:"), statsValueStyle.Render(fmt.Sprintf("%d", m.totalImages))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Total Size:"), statsValueStyle.Render(FormatBytes(m.totalBytes))),
	}

	switch {
	case m.done && m.runErr != nil:
		stats = append(stats, errorStyle.Render("✗ "+m.runErr.Error()))
	case m.done:
		stats = append(stats, successStyle.Render("✓ "+m.summary))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m *Model) renderCurrentPanel(width int) string {
	title := titleStyle.Render(" CURRENT ALBUM ")

	if m.current == nil {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Waiting for catalog...")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	a := m.current
	header := albumActiveStyle.Render(a.Title)
	if !m.done && a.State == AlbumActive {
		header = m.spinner.View() + " " + header
	}
	info := lipgloss.NewStyle().Foreground(dimWhite).Render(
		fmt.Sprintf("%d/%d images • %s", a.Saved, a.Images, FormatBytes(a.Bytes)))

	lines := []string{header, info, m.progress.ViewAs(m.AlbumProgress())}
	if m.currentImage != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(dimWhite).Render("last: "+m.currentImage+".jpg"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

func (m *Model) renderAlbumsPanel(width int) string {
	title := titleStyle.Render(" ALBUMS ")

	start := len(m.albums) - 8
	if start < 0 {
		start = 0
	}

	var items []string
	if start > 0 {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("  ... %d earlier", start)))
	}
	for _, a := range m.albums[start:] {
		style, marker := albumStyle(a.State)
		items = append(items, style.Render(truncate(fmt.Sprintf("%s %s (%d/%d)", marker, a.Title, a.Saved, a.Images), width-6)))
	}
	if len(items) == 0 {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render("No albums yet"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	logsHeight := m.height - 35
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit (cancels the sync)
    ctrl+l   - Clear the log panel
    ?        - Toggle this help

  Albums:
    ▶        - Downloading
    ✓        - Completed
    =        - Already complete on disk
    ` + errorStyle.Render("✗") + `        - Failed
`
	return panelStyle.Width(m.width).Render(help)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
