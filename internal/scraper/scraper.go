// Package scraper fetches a web page, isolates its readable article and
// turns it into a Markdown document.
//
// This package offers a configurable fetcher that identifies itself as a
// desktop browser, decodes the page to UTF-8 and parses it into a DOM tree.
// On top of that it extracts the main article with readability heuristics and
// renders it to Markdown with local image paths and code-block language tags.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Config holds configuration options for the scraper.
//
// This struct allows customization of the request identity, the request
// timeout and how many images are downloaded at once.
type Config struct {
	// UserAgent is the User-Agent header value sent with HTTP requests
	UserAgent string
	// Timeout specifies the maximum duration to wait for an HTTP request to complete
	Timeout time.Duration
	// MaxConcurrent limits the number of concurrent image downloads
	MaxConcurrent int
}

// DefaultConfig returns a default configuration with reasonable values.
//
// The default configuration uses a desktop browser user agent, since many
// sites serve a stripped page to unknown clients.
//
// Returns:
//   - A Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		UserAgent:     DefaultUserAgent,
		Timeout:       30 * time.Second,
		MaxConcurrent: 8,
	}
}

// Page is a fetched and parsed web page.
type Page struct {
	// URL is the final page URL, after redirects
	URL *url.URL
	// HTML is the page markup decoded to UTF-8
	HTML string
	// Document is the parsed DOM tree
	Document *html.Node
}

// Scraper is responsible for fetching pages and converting them.
//
// It owns the HTTP client so that the page request and the image downloads
// share connection pooling and the configured timeout.
type Scraper struct {
	// Config contains all the configuration options for this scraper
	Config *Config
	// Logger receives diagnostic output
	Logger logrus.FieldLogger
	// Now returns the timestamp written into the document header
	Now func() time.Time
	// client is the HTTP client used for making requests
	client *http.Client
}

// New creates a new scraper with the given configuration.
//
// If config is nil, default configuration will be used. If logger is nil,
// the logrus standard logger is used.
//
// Parameters:
//   - config: The configuration to use for this scraper (or nil for defaults)
//   - logger: Destination for diagnostic messages (or nil)
//
// Returns:
//   - A new Scraper instance ready to use
func New(config *Config, logger logrus.FieldLogger) *Scraper {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Scraper{
		Config: config,
		Logger: logger,
		Now:    time.Now,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: newLoggingTransport(http.DefaultTransport, logger),
		},
	}
}

// Client returns the HTTP client the scraper uses.
func (s *Scraper) Client() *http.Client {
	return s.client
}

// Fetch retrieves rawURL and parses the response into a Page.
//
// Any transport failure or a non-2xx status is reported as a *FetchError.
//
// Parameters:
//   - ctx: Context for the request
//   - rawURL: Absolute http(s) URL of the page
//
// Returns:
//   - The fetched page, or an error if it cannot be fetched or parsed
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	log := s.Logger.WithField("url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	log.Debug("fetching page")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	log.WithField("status", resp.StatusCode).Debug("page response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	markup := decode(body, resp.Header.Get("Content-Type"), log)

	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Page{
		URL:      resp.Request.URL,
		HTML:     string(markup),
		Document: doc,
	}, nil
}

// decode converts body to UTF-8 using the declared or sniffed charset. The
// raw bytes are returned when no decoder applies.
func decode(body []byte, contentType string, log logrus.FieldLogger) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		log.WithError(err).Debug("unknown charset, using raw bytes")
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		log.WithError(err).Debug("charset decoding failed, using raw bytes")
		return body
	}
	return decoded
}
