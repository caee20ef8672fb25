package models

import "time"

// Album is one gallery entry from the catalog page
type Album struct {
	// Title is decoration-stripped and trimmed
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	// CaptureDate is the card's date at 10:00 local time
	CaptureDate time.Time `json:"capture_date"`
	// TargetDirectory is <save_dir>/<sanitized "YYYY-MM-DD - title">
	TargetDirectory    string `json:"target_directory"`
	ExpectedImageCount int    `json:"expected_image_count"`
}

// Image is one photo card on an album page
type Image struct {
	// Title is used verbatim as the output filename stem
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Album     *Album `json:"-"`
}
