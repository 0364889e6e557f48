// Package app runs one page-to-Markdown conversion from explicit options.
//
// It holds no process state: the command layer parses flags into Options,
// calls Run and turns the returned error into an exit code.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesh254/webmd/internal/images"
	"github.com/tesh254/webmd/internal/sanitize"
	"github.com/tesh254/webmd/internal/scraper"
)

// Mode says where the Markdown went.
type Mode string

const (
	ModeStdout Mode = "stdout"
	ModeFile   Mode = "file"
)

// ImageFolderSuffix is appended to the Markdown file's base name to name the
// sibling image folder.
const ImageFolderSuffix = "_images"

// Options configures a single run.
type Options struct {
	// URL is the page to convert. It must start with http:// or https://.
	URL string
	// Output is the Markdown file to write. Empty derives it from the title.
	Output string
	// ToStdout prints the Markdown instead of saving it. No images are
	// downloaded in this mode.
	ToStdout bool
	// Dir is where a title-derived Output is placed. Defaults to the working
	// directory.
	Dir string

	Config   *scraper.Config
	Stdout   io.Writer
	Reporter *scraper.Reporter
	Logger   logrus.FieldLogger
	// Now overrides the clock used for the Saved header
	Now func() time.Time
}

// Result describes a finished run.
type Result struct {
	Mode     Mode
	Title    string
	Markdown string
	// Path is the written Markdown file, empty in stdout mode
	Path string
	// ImageFolder is where images were saved, empty in stdout mode
	ImageFolder string
	Images      *images.Report
}

// Run converts opts.URL and either prints the Markdown or saves it together
// with the page's images.
//
// The page is fetched once. In file mode the output name and image folder are
// derived from the article title right after extraction, so image links in
// the Markdown already point at the files the downloader writes.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := ValidateURL(opts.URL); err != nil {
		return nil, err
	}
	opts = withDefaults(opts)

	s := scraper.New(opts.Config, opts.Logger)
	if opts.Now != nil {
		s.Now = opts.Now
	}

	opts.Reporter.Converting()

	if opts.ToStdout {
		return runStdout(ctx, s, opts)
	}
	return runFile(ctx, s, opts)
}

func runStdout(ctx context.Context, s *scraper.Scraper, opts Options) (*Result, error) {
	conv, err := s.Convert(ctx, opts.URL, nil)
	if err != nil {
		return nil, err
	}

	if _, err := fmt.Fprint(opts.Stdout, conv.Markdown); err != nil {
		return nil, fmt.Errorf("failed to write markdown: %w", err)
	}

	return &Result{
		Mode:     ModeStdout,
		Title:    conv.Title,
		Markdown: conv.Markdown,
	}, nil
}

func runFile(ctx context.Context, s *scraper.Scraper, opts Options) (*Result, error) {
	var path, folder string
	conv, err := s.Convert(ctx, opts.URL, func(title string) string {
		path = OutputPath(opts.Output, opts.Dir, title)
		folder = ImageFolder(path)
		return folder
	})
	if err != nil {
		return nil, err
	}

	opts.Reporter.DownloadingImages()
	downloader := &images.Downloader{
		Client:      s.Client(),
		UserAgent:   s.Config.UserAgent,
		Concurrency: s.Config.MaxConcurrent,
		Logger:      opts.Logger,
		OnSaved:     opts.Reporter.ImageSaved,
	}
	report, err := downloader.Download(ctx, conv.RawHTML, conv.PageURL, folder)
	if err != nil {
		return nil, err
	}
	opts.Reporter.DownloadSummary(report)

	if err := writeFileAtomic(path, []byte(conv.Markdown)); err != nil {
		return nil, err
	}
	opts.Reporter.Saved(path)

	return &Result{
		Mode:        ModeFile,
		Title:       conv.Title,
		Markdown:    conv.Markdown,
		Path:        path,
		ImageFolder: folder,
		Images:      report,
	}, nil
}

func withDefaults(opts Options) Options {
	if opts.Config == nil {
		opts.Config = scraper.DefaultConfig()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Reporter == nil {
		opts.Reporter = scraper.NewReporter(io.Discard, false)
	}
	return opts
}

// ValidateURL rejects anything that is not an http or https URL.
func ValidateURL(raw string) error {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return &InvalidInputError{Arg: raw}
	}
	return nil
}

// OutputPath returns output when set, otherwise "<sanitized title>.md" inside
// dir. Titles that sanitize to nothing fall back to "Untitled".
func OutputPath(output, dir, title string) string {
	if output != "" {
		return output
	}
	name := sanitize.Filename(title)
	if name == "" {
		name = scraper.UntitledTitle
	}
	return filepath.Join(dir, name+".md")
}

// ImageFolder names the image folder that sits next to the Markdown file at
// mdPath: "post.md" becomes "post_images".
func ImageFolder(mdPath string) string {
	return strings.TrimSuffix(mdPath, ".md") + ImageFolderSuffix
}

// writeFileAtomic writes data to a temporary sibling and renames it into
// place, so an interrupted run never leaves a truncated document behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}
