package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/net/html"

	"github.com/tesh254/webmd/internal/images"
)

// removedTags never make it into the Markdown output.
var removedTags = []string{"script", "style", "noscript", "iframe", "nav", "footer", "aside"}

var (
	languageClass = regexp.MustCompile(`language-(\w+)`)
	altEscaper    = strings.NewReplacer("[", `\[`, "]", `\]`, "\n", " ")
)

// Parser converts article HTML to Markdown.
type Parser struct {
	// ImageFolder, when set, makes every <img> point at its local copy inside
	// this folder. Empty keeps the remote image URLs.
	ImageFolder string
	// BaseURL resolves relative links and image sources
	BaseURL *url.URL
}

// ToMarkdown converts HTML content to Markdown format.
func (p *Parser) ToMarkdown(htmlString string) (string, error) {
	conv := p.newConverter()

	var opts []converter.ConvertOptionFunc
	if p.BaseURL != nil {
		opts = append(opts, converter.WithDomain(p.BaseURL.String()))
	}

	markdown, err := conv.ConvertString(htmlString, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}

func (p *Parser) newConverter() *converter.Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithCodeBlockFence("```"),
				commonmark.WithBulletListMarker("-"),
			),
			table.NewTablePlugin(),
			strikethrough.NewStrikethroughPlugin(),
		),
	)

	for _, tag := range removedTags {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityEarly)
	}
	conv.Register.RendererFor("pre", converter.TagTypeBlock, renderCodeBlock, converter.PriorityEarly)
	if p.ImageFolder != "" {
		conv.Register.RendererFor("img", converter.TagTypeInline, p.renderLocalImage, converter.PriorityEarly)
	}

	return conv
}

// renderLocalImage writes an image as a link into the image folder. Inline
// data: images and sources that do not parse are left to the default
// renderer.
func (p *Parser) renderLocalImage(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	src := strings.TrimSpace(dom.GetAttributeOr(n, "src", ""))
	if src == "" {
		return converter.RenderSuccess
	}

	u, err := url.Parse(src)
	if err != nil {
		return converter.RenderTryNext
	}
	if p.BaseURL != nil {
		u = p.BaseURL.ResolveReference(u)
	}
	if images.IsDataURL(u) {
		return converter.RenderTryNext
	}

	alt := altEscaper.Replace(dom.GetAttributeOr(n, "alt", ""))
	path := images.MarkdownPath(p.ImageFolder, images.LocalName(u))

	w.WriteString("![" + alt + "](" + path + ")")
	return converter.RenderSuccess
}

// renderCodeBlock writes <pre><code> as a fenced block tagged with the code's
// language, when one can be determined.
func renderCodeBlock(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	code := n.FirstChild
	if code == nil || code.Type != html.ElementNode || code.Data != "code" {
		return converter.RenderTryNext
	}

	sel := goquery.NewDocumentFromNode(code).Selection
	text := sel.Text()
	lang := CodeLanguage(sel.AttrOr("class", ""), text)

	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}

	w.WriteString("\n\n" + fence + lang + "\n" + strings.TrimSpace(text) + "\n" + fence + "\n\n")
	return converter.RenderSuccess
}

// CodeLanguage picks the language tag for a code block: the language-* class
// if present, otherwise a statistical guess over the code. It returns "" when
// neither works.
func CodeLanguage(class, code string) string {
	if m := languageClass.FindStringSubmatch(class); m != nil {
		return m[1]
	}
	return guessLanguage(code)
}

func guessLanguage(code string) (lang string) {
	defer func() {
		if recover() != nil {
			lang = ""
		}
	}()

	if strings.TrimSpace(code) == "" {
		return ""
	}

	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}

	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}
