// Package sanitize turns article titles into file names that are safe on
// every common filesystem.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxLength is the maximum number of characters Filename returns.
const MaxLength = 100

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns = regexp.MustCompile(`[\s\p{Z}]+`)
	hyphenRuns     = regexp.MustCompile(`-+`)
)

// Filename strips characters that are reserved on Windows or POSIX file
// systems, replaces whitespace with hyphens and caps the result at MaxLength
// characters. The result never starts or ends with a hyphen.
//
// An empty or fully stripped title yields "", callers pick their own fallback.
func Filename(title string) string {
	name := forbiddenChars.ReplaceAllString(title, "")
	name = whitespaceRuns.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	runes := []rune(name)
	if len(runes) > MaxLength {
		// cutting may expose a hyphen that was interior before
		name = strings.TrimRight(string(runes[:MaxLength]), "-")
	}

	return name
}
