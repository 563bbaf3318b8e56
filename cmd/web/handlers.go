package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/myrjola/wrestlestrong/internal/contexthelpers"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

// formatFloat formats a float without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercentage renders a fraction such as 0.85 as "85%".
func formatPercentage(p *float64) string {
	if p == nil {
		return ""
	}
	// Rounded to a tenth of a percent, 0.7*100 is not exactly 70 in floating point.
	return strconv.FormatFloat(math.Round(*p*1000)/10, 'f', -1, 64) + "%" //nolint:mnd // percent
}

// staticTemplateFuncs do not depend on the request.
func staticTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatFloat":      formatFloat,
		"formatPercentage": formatPercentage,
		"weekLabel":        fivethreeone.WeekLabel,
		"weekScheme":       fivethreeone.WeekScheme,
		"liftName":         func(l fivethreeone.LiftType) string { return l.DisplayName() },
	}
}

// baseTemplateFuncs returns placeholders for the context-dependent functions so that templates parse.
func (app *application) baseTemplateFuncs() template.FuncMap {
	funcs := staticTemplateFuncs()
	funcs["nonce"] = func() template.HTMLAttr {
		panic("not implemented")
	}
	funcs["mdToHTML"] = func(string) template.HTML {
		panic("not implemented")
	}
	return funcs
}

// contextTemplateFuncs returns template.FuncMap with context-dependent function implementations.
func (app *application) contextTemplateFuncs(ctx context.Context) template.FuncMap {
	nonce := fmt.Sprintf("nonce=%q", contexthelpers.CSPNonce(ctx))
	return template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // we trust the nonce since it's not provided by user.
		},
		"mdToHTML": func(markdown string) template.HTML {
			return app.renderMarkdownToHTML(ctx, markdown)
		},
	}
}

// pageTemplate returns a template for the given page name.
//
// pageName corresponds to directory inside ui/templates/pages folder. It has to include a template named "page".
func (app *application) pageTemplate(pageName string) (*template.Template, error) {
	t, err := template.New(pageName).
		Funcs(app.baseTemplateFuncs()).
		ParseFS(app.templateFS, "base.gohtml", fmt.Sprintf("pages/%s/*.gohtml", pageName))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (app *application) renderToBuf(ctx context.Context, pageName string, data any) (*bytes.Buffer, error) {
	t, err := app.pageTemplate(pageName)
	if err != nil {
		return nil, fmt.Errorf("retrieve page template %s: %w", pageName, err)
	}

	buf := new(bytes.Buffer)
	t.Funcs(app.contextTemplateFuncs(ctx))
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", pageName, err)
	}
	return buf, nil
}

// render renders the page in ui/templates/pages/{pageName} and writes it to the response writer.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, pageName string, data any) {
	buf, err := app.renderToBuf(r.Context(), pageName, data)
	if err != nil {
		// serverError renders too, so a broken template falls back to plain text here.
		app.logger.LogAttrs(r.Context(), slog.LevelError, "render page",
			slog.String("page", pageName), errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
