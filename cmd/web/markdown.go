package main

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"

	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// newMarkdown renders GitHub flavoured markdown. Raw HTML in the source is dropped.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

func (app *application) renderMarkdownToHTML(ctx context.Context, markdown string) template.HTML {
	var buf bytes.Buffer
	if err := app.markdown.Convert([]byte(markdown), &buf); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "render markdown",
			errors.SlogError(errors.Wrap(err, "convert markdown")))
		return template.HTML(template.HTMLEscapeString(markdown)) //nolint:gosec // escaped
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark drops raw HTML by default.
}
