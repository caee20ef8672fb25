// Package browser drives the rendered gallery site and ties network
// responses back to the image a navigation was meant to fetch.
package browser

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Response is a completed network response observed by the page
type Response struct {
	URL    string
	Status int
	Body   []byte
}

// Page is a rendered browser tab. Implementations resolve relative URLs
// against the site base URL.
type Page interface {
	// Navigate loads url in the tab
	Navigate(ctx context.Context, url string) error
	// Fill sets the value of the first element matching selector
	Fill(ctx context.Context, selector, value string) error
	// Press sends a named key ("Enter", "Tab") to the element
	Press(ctx context.Context, selector, key string) error
	// WaitIdle blocks until no network requests have been in flight for the
	// configured idle window
	WaitIdle(ctx context.Context) error
	// Location returns the current page URL
	Location(ctx context.Context) (string, error)
	// Document returns the current rendered DOM
	Document(ctx context.Context) (*goquery.Document, error)
	// Expect registers the single pending expectation for url's response.
	// It must be called before the navigation that triggers the request.
	Expect(url string) (*Expectation, error)
	Close() error
}

// ResolveURL resolves href against base
func ResolveURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
