package scraper

import (
	"errors"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// UntitledTitle replaces an empty article title.
const UntitledTitle = "Untitled"

// Article is the readable part of a page.
type Article struct {
	Title    string
	Byline   string
	SiteName string
	Excerpt  string
	// Content is the cleaned article HTML
	Content string
}

var errNoContent = errors.New("no readable content found")

// Extract isolates the main article of page, dropping navigation, ads and
// other boilerplate. It returns an *ExtractionError when nothing readable is
// left.
func Extract(page *Page) (*Article, error) {
	// classes carry the language-* hints the code block renderer reads
	parser := readability.NewParser()
	parser.KeepClasses = true

	parsed, err := parser.ParseDocument(page.Document, page.URL)
	if err != nil {
		return nil, &ExtractionError{URL: page.URL.String(), Err: err}
	}
	if strings.TrimSpace(parsed.Content) == "" {
		return nil, &ExtractionError{URL: page.URL.String(), Err: errNoContent}
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		title = UntitledTitle
	}

	return &Article{
		Title:    title,
		Byline:   parsed.Byline,
		SiteName: parsed.SiteName,
		Excerpt:  parsed.Excerpt,
		Content:  parsed.Content,
	}, nil
}
