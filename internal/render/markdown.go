// Package render turns chapter Markdown into HTML fragments.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls Markdown rendering
type Options struct {
	// SafeMode drops raw HTML embedded in chapters
	SafeMode  bool
	HardWraps bool
}

// Renderer converts Markdown using goldmark with GFM extensions. It is
// stateless after construction and safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// New builds a renderer for opts
func New(opts Options) *Renderer {
	var rendererOptions []goldmark.Option

	htmlOptions := []renderer.Option{}
	if opts.HardWraps {
		htmlOptions = append(htmlOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		htmlOptions = append(htmlOptions, html.WithUnsafe())
	}
	if len(htmlOptions) > 0 {
		rendererOptions = append(rendererOptions, goldmark.WithRendererOptions(htmlOptions...))
	}

	rendererOptions = append(rendererOptions,
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
		),
	)

	return &Renderer{engine: goldmark.New(rendererOptions...)}
}

// Render converts markdown to HTML. A leading front matter block, if any,
// is stripped first.
func (r *Renderer) Render(markdown string) (string, error) {
	body := StripFrontMatter(markdown)

	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

// StripFrontMatter removes a YAML or TOML front matter block. Content
// without front matter, or with a block that fails to parse, is returned
// unchanged.
func StripFrontMatter(markdown string) string {
	trimmed := strings.TrimPrefix(markdown, "\ufeff")
	if !strings.HasPrefix(trimmed, "---") && !strings.HasPrefix(trimmed, "+++") {
		return markdown
	}

	var meta map[string]any
	body, err := frontmatter.Parse(strings.NewReader(trimmed), &meta)
	if err != nil {
		return markdown
	}
	return string(body)
}
