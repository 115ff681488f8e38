package parser

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownOptions configure the markdown parser.
type MarkdownOptions struct {
	// HighlightStyle is the chroma style name. Code blocks are emitted with
	// CSS classes, so the style only matters for generated stylesheets.
	HighlightStyle string
	// HardWraps renders single newlines as <br>.
	HardWraps bool
}

// Markdown converts Markdown (GFM flavoured) into HTML.
type Markdown struct {
	engine goldmark.Markdown
}

// NewMarkdown builds a markdown parser. The goldmark engine is created once
// and is safe for concurrent use.
func NewMarkdown(opts MarkdownOptions) *Markdown {
	style := opts.HighlightStyle
	if style == "" {
		style = "github"
	}

	rendererOptions := []renderer.Option{html.WithUnsafe(), html.WithXHTML()}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(gmparser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &Markdown{engine: engine}
}

func (*Markdown) Name() string         { return "markdown" }
func (*Markdown) Extensions() []string { return []string{"md", "markdown", "mkd", "mdown"} }
func (*Markdown) OutputExt() string    { return "html" }

func (m *Markdown) Transform(text, _ string) (string, error) {
	var buf bytes.Buffer
	if err := m.engine.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}
