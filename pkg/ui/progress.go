package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"kigaroo/pkg/models"
)

// ProgressDisplay prints a one-line progress bar for the album being
// downloaded. In verbose mode every image gets its own line instead.
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool

	album     string
	total     int
	saved     int
	bytes     int64
	images    int
	skipped   int
	errors    int
	startTime time.Time
}

// NewProgressDisplay creates a progress display writing to out
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		verbose:   verbose,
		startTime: time.Now(),
	}
}

// AlbumStarted begins a new progress line
func (p *ProgressDisplay) AlbumStarted(album *models.Album, images int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.album != "" && !p.verbose {
		fmt.Fprintln(p.out)
	}
	p.album = album.Title
	p.total = images
	p.saved = 0

	if p.verbose {
		fmt.Fprintf(p.out, "%s %s (%d images)\n", Magenta("→"), album.Title, images)
		return
	}
	p.printProgress()
}

// AlbumSkipped reports an album that is already complete on disk
func (p *ProgressDisplay) AlbumSkipped(album *models.Album, existing int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s %s\n", Dim("="), album.Title, Dim(fmt.Sprintf("(%d on disk)", existing)))
	}
}

// ImageSaved advances the bar
func (p *ProgressDisplay) ImageSaved(image *models.Image, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.saved++
	p.images++
	p.bytes += int64(size)

	if p.verbose {
		fmt.Fprintf(p.out, "  %s %s.jpg • %s\n", Green("✓"), image.Title, formatBytes(int64(size)))
		return
	}
	p.printProgress()
}

// ImageFailed reports the image that stopped its album
func (p *ProgressDisplay) ImageFailed(image *models.Image, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors++
	fmt.Fprintf(p.out, "\n%s Failed: %s - %v\n", Red("✗"), image.Title, err)
}

func (p *ProgressDisplay) printProgress() {
	const width = 20

	progress := 0.0
	if p.total > 0 {
		progress = float64(p.saved) / float64(p.total)
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)

	line := fmt.Sprintf("%s [%s] %d/%d • %s",
		Cyan(p.album),
		bar,
		p.saved,
		p.total,
		formatBytes(p.bytes),
	)
	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// Complete prints the closing statistics
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(p.out, "\n\n%s Saved %d images (%s) in %s\n",
		Green("✓"),
		p.images,
		formatBytes(p.bytes),
		formatDuration(elapsed),
	)
	if p.skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d albums already complete\n", Dim("•"), p.skipped)
	}
	if p.errors > 0 {
		fmt.Fprintf(p.out, "  %s %d albums failed\n", Dim("•"), p.errors)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatBytes formats bytes in a human-readable way
func formatBytes(bytes int64) string {
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
