package app

import "fmt"

// InvalidInputError reports a command-line argument that is not a usable
// page URL. An empty Arg means no URL was given at all.
type InvalidInputError struct {
	Arg string
}

func (e *InvalidInputError) Error() string {
	if e.Arg == "" {
		return "missing URL: pass a page starting with http:// or https://"
	}
	return fmt.Sprintf("invalid URL %q: must start with http:// or https://", e.Arg)
}
