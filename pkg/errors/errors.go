package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies failures by the pipeline stage that produced them
type Kind string

const (
	KindCatalog  Kind = "catalog"
	KindAuth     Kind = "auth"
	KindDownload Kind = "download"
	KindConfig   Kind = "config"
	KindStorage  Kind = "storage"
	KindMetadata Kind = "metadata"
	KindUnknown  Kind = "unknown"
)

// Error is a stage-tagged failure. Every error the scraper returns to the
// runner is (or wraps) one of these.
type Error struct {
	Kind Kind
	Op   string
	URL  string
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" [status %d]", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Catalog reports a page whose structure does not match what the extractors expect
func Catalog(op string, err error) *Error {
	return &Error{Kind: KindCatalog, Op: op, Err: err}
}

// Auth reports a failed login
func Auth(op string, err error) *Error {
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

// Download reports a tracked image request that did not succeed
func Download(url string, code int, err error) *Error {
	return &Error{Kind: KindDownload, Op: "download", URL: url, Code: code, Err: err}
}

// Storage reports a filesystem failure
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// Metadata reports a failure while embedding tags into image bytes
func Metadata(op string, err error) *Error {
	return &Error{Kind: KindMetadata, Op: op, Err: err}
}

// Config reports invalid or missing configuration
func Config(op string, err error) *Error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsSuccessStatus reports whether an HTTP status code counts as a successful download
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

// ExitCode maps an error kind to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindConfig:
		return 2
	case KindAuth:
		return 3
	case KindCatalog:
		return 4
	case KindDownload:
		return 5
	default:
		return 1
	}
}
