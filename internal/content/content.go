// Package content turns untrusted job text (HTML and/or Markdown) into HTML
// fragments that can be injected into a page without escaping.
//
// The pipeline is fixed: sanitize first, then convert Markdown. Render only
// accepts a Sanitized value, and only Sanitize can produce one.
package content

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Options tunes the formatter
type Options struct {
	TargetBlankLinks bool // open absolute links in a new tab
	HardWraps        bool // render single newlines as <br>
}

// Sanitized is text that has passed the sanitizer
type Sanitized struct {
	html string
}

// String returns the sanitized text
func (s Sanitized) String() string {
	return s.html
}

// Formatter sanitizes and renders job text. Safe for concurrent use.
type Formatter struct {
	policy *bluemonday.Policy
	md     goldmark.Markdown
}

// NewFormatter creates a Formatter with a UGC allowlist and a GFM renderer
func NewFormatter(opts Options) *Formatter {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoReferrerOnLinks(true)
	if opts.TargetBlankLinks {
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	}

	rendererOpts := []renderer.Option{
		// input is already sanitized HTML, keep it
		html.WithUnsafe(),
	}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(safeLinks{}, 100)),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)

	return &Formatter{policy: policy, md: md}
}

// Sanitize strips scripts, event handlers and dangerous tags/attributes
func (f *Formatter) Sanitize(raw string) Sanitized {
	return Sanitized{html: f.policy.Sanitize(raw)}
}

// Render converts sanitized Markdown/HTML to HTML
func (f *Formatter) Render(s Sanitized) (template.HTML, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(s.html), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Format runs the full sanitize-then-render pipeline
func (f *Formatter) Format(raw string) (template.HTML, error) {
	return f.Render(f.Sanitize(raw))
}

var defaultFormatter = NewFormatter(Options{})

// Format runs the pipeline with default options
func Format(raw string) (template.HTML, error) {
	return defaultFormatter.Format(raw)
}

// safeLinks neutralizes javascript:, vbscript:, data: and file: destinations
// that Markdown link syntax would otherwise emit unfiltered.
type safeLinks struct{}

func (safeLinks) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var unsafeAutoLinks []*ast.AutoLink

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			if html.IsDangerousURL(node.Destination) {
				node.Destination = []byte("#")
			}
		case *ast.Image:
			if html.IsDangerousURL(node.Destination) {
				node.Destination = []byte("#")
			}
		case *ast.AutoLink:
			if html.IsDangerousURL(node.URL(source)) {
				unsafeAutoLinks = append(unsafeAutoLinks, node)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, link := range unsafeAutoLinks {
		parent := link.Parent()
		if parent == nil {
			continue
		}
		parent.ReplaceChild(parent, link, ast.NewString(link.Label(source)))
	}
}
