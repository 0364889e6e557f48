package scraper

import (
	"fmt"
	"net/http"
)

// FetchError is returned when a page cannot be retrieved: the request failed
// in transport or the server answered with a non-2xx status.
type FetchError struct {
	URL string
	// StatusCode is zero when no response was received
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError is returned when no readable article can be found in a
// page.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not extract article content from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("could not extract article content from %s", e.URL)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
