// Package images finds the images a page embeds, derives stable local file
// names for them and downloads them next to a saved Markdown document.
package images

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultName is used when an image URL has no usable last path segment.
const DefaultName = "image"

// DefaultExt is appended to names that carry no extension.
const DefaultExt = ".png"

var (
	// imgSrcPattern is deliberately loose: it scans raw markup rather than a
	// parsed tree, so broken HTML still yields its images.
	imgSrcPattern = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// Reference is a single <img> found in a page.
type Reference struct {
	// OriginalSrc is the src attribute as written in the markup
	OriginalSrc string
	// URL is OriginalSrc resolved against the page URL
	URL *url.URL
	// LocalName is the file name the image is stored under
	LocalName string
}

// Scan returns every image referenced by an <img src> in rawHTML, resolved
// against base. Sources that do not parse and inline data: URLs are skipped.
// Order follows the markup.
func Scan(rawHTML string, base *url.URL) []Reference {
	matches := imgSrcPattern.FindAllStringSubmatch(rawHTML, -1)
	refs := make([]Reference, 0, len(matches))

	for _, m := range matches {
		src := m[1]

		u, err := resolve(base, src)
		if err != nil {
			continue
		}
		if IsDataURL(u) {
			continue
		}

		refs = append(refs, Reference{
			OriginalSrc: src,
			URL:         u,
			LocalName:   LocalName(u),
		})
	}

	return refs
}

func resolve(base *url.URL, src string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}
	if base == nil {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}

// IsDataURL reports whether u is an inline data: URL.
func IsDataURL(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, "data")
}

// LocalName derives the file name an image URL is saved under: the last path
// segment, DefaultName when there is none, DefaultExt when it has no
// extension, and every character outside [A-Za-z0-9._-] replaced with "_".
//
// The Markdown image rule and the downloader must both go through here so
// that referenced paths and written files agree.
func LocalName(u *url.URL) string {
	p := strings.TrimRight(u.Path, "/")
	name := p[strings.LastIndex(p, "/")+1:]
	if name == "" {
		name = DefaultName
	}
	if !strings.Contains(name, ".") {
		name += DefaultExt
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

// MarkdownPath is the relative link a Markdown file uses for an image stored
// as name inside folder. folder is expected to sit next to the Markdown file.
func MarkdownPath(folder, name string) string {
	return "./" + filepath.Base(folder) + "/" + name
}
