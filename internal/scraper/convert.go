package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TimestampLayout formats the Saved header: ISO-8601, UTC, millisecond
// precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ConversionResult is the output of converting one page.
type ConversionResult struct {
	// Markdown is the full document, header included
	Markdown string
	// Title is the article title
	Title string
	// RawHTML is the whole page markup, used to find images to download
	RawHTML string
	// PageURL is the URL the page was served from
	PageURL *url.URL
	// ImageFolder is the folder image links point into, empty when images
	// keep their remote URLs
	ImageFolder string
}

// FolderFunc chooses the image folder once the article title is known.
// Returning "" leaves image URLs untouched.
type FolderFunc func(title string) string

// Convert fetches rawURL, extracts its article and renders it as a Markdown
// document.
//
// folderFor is consulted after extraction, so the image folder can be named
// after the article without fetching the page again. A nil folderFor keeps
// remote image URLs.
//
// Parameters:
//   - ctx: Context for the page request
//   - rawURL: The page to convert, written verbatim into the Source header
//   - folderFor: Image folder selector (or nil)
//
// Returns:
//   - The conversion result, or a *FetchError / *ExtractionError
func (s *Scraper) Convert(ctx context.Context, rawURL string, folderFor FolderFunc) (*ConversionResult, error) {
	page, err := s.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	article, err := Extract(page)
	if err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{
		"title":     article.Title,
		"byline":    article.Byline,
		"site_name": article.SiteName,
		"excerpt":   article.Excerpt,
	}).Debug("article extracted")

	var folder string
	if folderFor != nil {
		folder = folderFor(article.Title)
	}

	parser := &Parser{ImageFolder: folder, BaseURL: page.URL}
	body, err := parser.ToMarkdown(article.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return &ConversionResult{
		Markdown:    Compose(article.Title, rawURL, s.Now(), body),
		Title:       article.Title,
		RawHTML:     page.HTML,
		PageURL:     page.URL,
		ImageFolder: folder,
	}, nil
}

// Compose prepends the title, source and save-time header to body.
func Compose(title, sourceURL string, savedAt time.Time, body string) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n**Source:** ")
	b.WriteString(sourceURL)
	b.WriteString("\n**Saved:** ")
	b.WriteString(savedAt.UTC().Format(TimestampLayout))
	b.WriteString("\n\n---\n\n")
	b.WriteString(body)
	b.WriteString("\n")

	return b.String()
}
