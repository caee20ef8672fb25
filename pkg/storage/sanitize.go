package storage

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// maxNameBytes is the common per-component limit of ext4, APFS and NTFS
const maxNameBytes = 255

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeName turns a proposed file or directory name into one that is
// valid on Linux, macOS and Windows. Characters that are illegal on any of
// them are removed, trailing dots and spaces are trimmed and the result is
// cut to 255 bytes on a rune boundary.
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`\/:*?"<>|`, r) {
			return -1
		}
		return r
	}, name)

	name = truncateBytes(name, maxNameBytes)
	name = strings.TrimRight(name, " .")

	stem := name
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if reservedNames[strings.ToUpper(strings.TrimSpace(stem))] {
		name = "_" + name
	}
	if name == "" {
		return "_"
	}
	return name
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// AlbumDirName is the directory name for an album captured on date
func AlbumDirName(date time.Time, title string) string {
	return SanitizeName(date.Format("2006-01-02") + " - " + title)
}

// AlbumPath joins the album directory name under root
func AlbumPath(root string, date time.Time, title string) string {
	return filepath.Join(root, AlbumDirName(date, title))
}
