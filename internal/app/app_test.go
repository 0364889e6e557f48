package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesh254/webmd/internal/scraper"
)

const pageTitle = `Concurrency "Patterns" in Go?`

const paragraph = `<p>Go keeps concurrency approachable by pairing goroutines with channels. A goroutine is cheap to
start, and a channel gives two goroutines a safe place to hand values to each other without sharing memory.
Most programs never need more than these two primitives plus the occasional mutex.</p>`

func articlePage() string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Concurrency "Patterns" in Go?</title></head>
<body>
<nav><img src="/static/logo.svg" alt="logo"><a href="/">Home</a></nav>
<article>
<h1>Concurrency "Patterns" in Go?</h1>
` + strings.Repeat(paragraph, 3) + `
<p><img src="/static/diagram.png" alt="Diagram"></p>
` + strings.Repeat(paragraph, 2) + `
<pre><code class="language-go">go worker(jobs)</code></pre>
<p><img src="/static/broken.png" alt="Broken"></p>
</article>
<footer>footer text</footer>
</body></html>`
}

type fixture struct {
	server    *httptest.Server
	pageHits  int32
	imageHits int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.pageHits, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, articlePage())
	})
	mux.HandleFunc("/static/diagram.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.imageHits, 1)
		io.WriteString(w, "diagram-bytes")
	})
	mux.HandleFunc("/static/logo.svg", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.imageHits, 1)
		io.WriteString(w, "<svg/>")
	})
	mux.HandleFunc("/static/broken.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.imageHits, 1)
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) url(path string) string { return f.server.URL + path }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func baseOptions(rawURL, dir string) Options {
	return Options{
		URL:    rawURL,
		Dir:    dir,
		Stdout: io.Discard,
		Logger: quietLogger(),
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_InvalidURL(t *testing.T) {
	for _, arg := range []string{"example.com", "ftp://example.com/file", "", "file:///etc/passwd"} {
		t.Run(arg, func(t *testing.T) {
			dir := t.TempDir()

			_, err := Run(context.Background(), baseOptions(arg, dir))

			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, arg, invalid.Arg)
			assert.Empty(t, listDir(t, dir))
		})
	}
}

func TestRun_Stdout(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	var out bytes.Buffer

	opts := baseOptions(f.url("/post"), dir)
	opts.ToStdout = true
	opts.Stdout = &out
	result, err := Run(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, ModeStdout, result.Mode)
	assert.True(t, strings.HasPrefix(out.String(), "# "+pageTitle+"\n\n**Source:** "+f.url("/post")+"\n"))
	assert.Empty(t, result.Path)
	assert.Empty(t, result.ImageFolder)
	assert.Empty(t, listDir(t, dir))
	assert.Zero(t, atomic.LoadInt32(&f.imageHits))
}

func TestRun_FileDefaultName(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	result, err := Run(context.Background(), baseOptions(f.url("/post"), dir))

	require.NoError(t, err)
	assert.Equal(t, ModeFile, result.Mode)
	assert.Equal(t, filepath.Join(dir, "Concurrency-Patterns-in-Go.md"), result.Path)
	assert.Equal(t, filepath.Join(dir, "Concurrency-Patterns-in-Go_images"), result.ImageFolder)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	md := string(data)
	assert.Equal(t, result.Markdown, md)
	assert.True(t, strings.HasPrefix(md, "# "+pageTitle+"\n"))
	assert.Contains(t, md, "**Source:** "+f.url("/post")+"\n")
	assert.NotContains(t, md, f.url("/static/diagram.png"))

	// only the images that answered 2xx are written
	assert.ElementsMatch(t, []string{"diagram.png", "logo.svg"}, listDir(t, result.ImageFolder))
	assert.Len(t, result.Images.Failed(), 1)

	// no temp files left behind
	assert.ElementsMatch(t, []string{"Concurrency-Patterns-in-Go.md", "Concurrency-Patterns-in-Go_images"}, listDir(t, dir))
}

func TestRun_FileFetchesPageOnce(t *testing.T) {
	f := newFixture(t)

	_, err := Run(context.Background(), baseOptions(f.url("/post"), t.TempDir()))

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.pageHits))
}

func TestRun_FileExplicitOutput(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	opts := baseOptions(f.url("/post"), dir)
	opts.Output = filepath.Join(dir, "notes", "go.md")
	result, err := Run(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, opts.Output, result.Path)
	assert.Equal(t, filepath.Join(dir, "notes", "go_images"), result.ImageFolder)
	assert.FileExists(t, opts.Output)
	assert.FileExists(t, filepath.Join(dir, "notes", "go_images", "diagram.png"))
}

func TestRun_FileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	run := func() string {
		tick = tick.Add(time.Minute)
		opts := baseOptions(f.url("/post"), dir)
		opts.Now = func() time.Time { return tick }
		result, err := Run(context.Background(), opts)
		require.NoError(t, err)
		data, err := os.ReadFile(result.Path)
		require.NoError(t, err)
		return string(data)
	}

	first, second := run(), run()

	require.NotEqual(t, first, second)
	assert.Equal(t, withoutSavedLine(first), withoutSavedLine(second))
}

func withoutSavedLine(md string) string {
	var kept []string
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "**Saved:**") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func TestRun_FetchErrorWritesNothing(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	_, err := Run(context.Background(), baseOptions(f.url("/nowhere"), dir))

	var fetchErr *scraper.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Empty(t, listDir(t, dir))
}

func TestRun_ReportsProgress(t *testing.T) {
	f := newFixture(t)
	var progress bytes.Buffer

	opts := baseOptions(f.url("/post"), t.TempDir())
	opts.Reporter = scraper.NewReporter(&progress, false)
	result, err := Run(context.Background(), opts)

	require.NoError(t, err)
	out := progress.String()
	assert.Contains(t, out, "Converting...")
	assert.Contains(t, out, "Downloading images...")
	assert.Contains(t, out, "📷 diagram.png")
	assert.Contains(t, out, fmt.Sprintf("Saved: %s", result.Path))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		dir    string
		title  string
		want   string
	}{
		{name: "explicit output wins", output: "x.md", dir: "d", title: "T", want: "x.md"},
		{name: "sanitized title", dir: "out", title: "Hello: World / Test", want: filepath.Join("out", "Hello-World-Test.md")},
		{name: "empty dir", title: "Go", want: "Go.md"},
		{name: "title sanitizes to nothing", title: "???", want: "Untitled.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.output, tt.dir, tt.title))
		})
	}
}

func TestImageFolder(t *testing.T) {
	assert.Equal(t, "post_images", ImageFolder("post.md"))
	assert.Equal(t, filepath.Join("a", "b_images"), ImageFolder(filepath.Join("a", "b.md")))
	assert.Equal(t, "notes.txt_images", ImageFolder("notes.txt"))
}

func TestInvalidInputError_Message(t *testing.T) {
	assert.Equal(t, `invalid URL "example.com": must start with http:// or https://`,
		(&InvalidInputError{Arg: "example.com"}).Error())
	assert.Equal(t, "missing URL: pass a page starting with http:// or https://",
		(&InvalidInputError{}).Error())
}
