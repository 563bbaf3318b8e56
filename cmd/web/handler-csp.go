package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxCSPReportSize bounds the body of a violation report.
const maxCSPReportSize = 64 * 1024

type cspViolationReport struct {
	CSPReport struct {
		DocumentURI       string `json:"document-uri"`
		ViolatedDirective string `json:"violated-directive"`
		BlockedURI        string `json:"blocked-uri"`
		SourceFile        string `json:"source-file"`
		LineNumber        int    `json:"line-number"`
		Disposition       string `json:"disposition"`
	} `json:"csp-report"`
}

// cspViolation logs the reports browsers send to the report-uri of the Content-Security-Policy.
func (app *application) cspViolation(w http.ResponseWriter, r *http.Request) {
	var report cspViolationReport
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCSPReportSize)).Decode(&report); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "malformed CSP violation report",
			slog.String("error", err.Error()),
			slog.String("content_type", r.Header.Get("Content-Type")))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	app.logger.LogAttrs(r.Context(), slog.LevelWarn, "CSP violation detected",
		slog.String("document_uri", report.CSPReport.DocumentURI),
		slog.String("violated_directive", report.CSPReport.ViolatedDirective),
		slog.String("blocked_uri", report.CSPReport.BlockedURI),
		slog.String("source_file", report.CSPReport.SourceFile),
		slog.Int("line_number", report.CSPReport.LineNumber),
		slog.String("disposition", report.CSPReport.Disposition))

	w.WriteHeader(http.StatusNoContent)
}
