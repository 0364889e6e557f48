package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency bounds simultaneous image requests.
const DefaultConcurrency = 8

// Result is the outcome of one image download.
type Result struct {
	Reference Reference
	// Path is where the image was written, empty on failure
	Path  string
	Bytes int64
	Err   error
}

// Report collects the outcome of every attempted download.
type Report struct {
	Folder  string
	Results []Result
}

// Saved returns the downloads that succeeded.
func (r *Report) Saved() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the downloads that did not succeed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Downloader fetches the images of a page into a local folder. A failing
// image never affects the others: each outcome lands in the Report.
type Downloader struct {
	Client      *http.Client
	UserAgent   string
	Concurrency int
	Logger      logrus.FieldLogger
	// OnSaved, when set, is called after each successful write. It may be
	// called from several goroutines at once.
	OnSaved func(Result)
}

// Download scans rawHTML for images, resolves them against base and saves
// each one to folder under its LocalName. It blocks until every attempt has
// finished. Only failing to create folder is returned as an error.
//
// When the page has no images the folder is not created.
func (d *Downloader) Download(ctx context.Context, rawHTML string, base *url.URL, folder string) (*Report, error) {
	refs := unique(Scan(rawHTML, base))
	report := &Report{Folder: folder, Results: make([]Result, len(refs))}
	if len(refs) == 0 {
		return report, nil
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image folder: %w", err)
	}

	p := pool.New().WithMaxGoroutines(d.concurrency())
	for i, ref := range refs {
		p.Go(func() {
			report.Results[i] = d.fetch(ctx, ref, folder)
		})
	}
	p.Wait()

	return report, nil
}

func (d *Downloader) fetch(ctx context.Context, ref Reference, folder string) Result {
	res := Result{Reference: ref}
	log := d.logger().WithField("url", ref.URL.String())

	data, err := d.get(ctx, ref.URL.String())
	if err != nil {
		log.WithError(err).Debug("skipping image")
		res.Err = err
		return res
	}

	path := filepath.Join(folder, ref.LocalName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).WithField("file", path).Debug("failed to write image")
		res.Err = fmt.Errorf("failed to write image: %w", err)
		return res
	}

	res.Path = path
	res.Bytes = int64(len(data))
	log.WithField("file", path).Debug("image saved")
	if d.OnSaved != nil {
		d.OnSaved(res)
	}
	return res
}

func (d *Downloader) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}

func (d *Downloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *Downloader) logger() logrus.FieldLogger {
	if d.Logger != nil {
		return d.Logger
	}
	return logrus.StandardLogger()
}

func (d *Downloader) concurrency() int {
	if d.Concurrency > 0 {
		return d.Concurrency
	}
	return DefaultConcurrency
}

// unique drops references whose LocalName was already seen, so no two
// downloads write the same file.
func unique(refs []Reference) []Reference {
	seen := make(map[string]bool, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		if seen[ref.LocalName] {
			continue
		}
		seen[ref.LocalName] = true
		out = append(out, ref)
	}
	return out
}
