package scraper

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tesh254/webmd/internal/images"
)

// Reporter prints progress for a conversion run. Output goes to Out, which
// is normally stderr so that stdout stays clean for Markdown.
type Reporter struct {
	Out     io.Writer
	Verbose bool
	mu      sync.Mutex
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{Out: out, Verbose: verbose}
}

func (r *Reporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, line)
}

func (r *Reporter) Converting() {
	r.println(color.YellowString("🔄 Converting..."))
}

func (r *Reporter) DownloadingImages() {
	r.println(color.YellowString("📷 Downloading images..."))
}

// ImageSaved is safe for concurrent use.
func (r *Reporter) ImageSaved(res images.Result) {
	r.println("  📷 " + res.Reference.LocalName)
}

func (r *Reporter) Saved(path string) {
	green := color.New(color.FgGreen).SprintFunc()
	r.println(green("✅ Saved: ") + path)
}

func (r *Reporter) Error(err error) {
	red := color.New(color.FgRed).SprintFunc()
	r.println(red("❌ Error: ") + err.Error())
}

// DownloadSummary renders a table of every image attempt. Only shown in
// verbose mode.
func (r *Reporter) DownloadSummary(report *images.Report) {
	if !r.Verbose || report == nil || len(report.Results) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Image", "URL", "Bytes", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 40},
		{Number: 2, Align: text.AlignLeft, WidthMax: 60},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignLeft, WidthMax: 40},
	})

	for _, res := range report.Results {
		status := color.GreenString("ok")
		if res.Err != nil {
			status = color.RedString(res.Err.Error())
		}
		t.AppendRow(table.Row{
			res.Reference.LocalName,
			res.Reference.URL.String(),
			strconv.FormatInt(res.Bytes, 10),
			status,
		})
	}
	t.AppendFooter(table.Row{"", "", strconv.Itoa(len(report.Saved())) + "/" + strconv.Itoa(len(report.Results)), "saved"})
	t.Render()
}
