// Package markdown renders article markdown into the HTML stored as the
// article body.
package markdown

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML. Raw HTML in the source is passed
// through, so authors can mix tags into their text.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a renderer with GitHub flavored extensions enabled.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
		),
	}
}

// Render returns the HTML for source. Conversion only fails on writer
// errors, which a bytes.Buffer never produces; the escaped source is
// returned in that case anyway.
func (r *Renderer) Render(source string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "<pre>" + html.EscapeString(source) + "</pre>"
	}
	return buf.String()
}
