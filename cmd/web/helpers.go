package main

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/training"
)

type errorTemplateData struct {
	BaseTemplateData
	Title   string
	Message string
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.render(w, r, http.StatusInternalServerError, "error", errorTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Title:            "Something went wrong",
		Message:          "The request failed. Try again in a moment.",
	})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusNotFound, "not-found", newBaseTemplateData(r))
}

// unprocessable responds to input the training program cannot use.
func (app *application) unprocessable(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "unprocessable input", slog.String("message", message))
	app.render(w, r, http.StatusUnprocessableEntity, "error", errorTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Title:            "Check your input",
		Message:          message,
	})
}

// serviceError maps training errors to responses.
func (app *application) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, training.ErrNotFound):
		app.notFound(w, r)
	case errors.Is(err, training.ErrNoProfile):
		redirect(w, r, "/")
	case errors.Is(err, training.ErrInvalidInput), errors.Is(err, training.ErrNotAMRAP):
		app.unprocessable(w, r, err.Error())
	default:
		app.serverError(w, r, err)
	}
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithFlash shows msg on the page the user lands on.
func (app *application) redirectWithFlash(w http.ResponseWriter, r *http.Request, path, msg string) {
	app.sessionManager.Put(r.Context(), flashKey, msg)
	redirect(w, r, path)
}

// parseWeight parses a positive finite weight from the form field.
func parseWeight(r *http.Request, field string) (float64, error) {
	raw := strings.TrimSpace(r.PostForm.Get(field))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", field)
	}
	return v, nil
}

// parseOneRepMaxes reads the one-rep max of every main lift from the form.
func parseOneRepMaxes(r *http.Request) (fivethreeone.Lifts, error) {
	var (
		lifts fivethreeone.Lifts
		errs  []error
		err   error
	)
	if lifts.Squat, err = parseWeight(r, "squat"); err != nil {
		errs = append(errs, err)
	}
	if lifts.BenchPress, err = parseWeight(r, "bench_press"); err != nil {
		errs = append(errs, err)
	}
	if lifts.Deadlift, err = parseWeight(r, "deadlift"); err != nil {
		errs = append(errs, err)
	}
	if lifts.PowerClean, err = parseWeight(r, "power_clean"); err != nil {
		errs = append(errs, err)
	}
	return lifts, errors.Join(errs...)
}

// parseSetPath parses the workout, exercise and set index path parameters.
// On failure, sends HTTP 404 response automatically.
func (app *application) parseSetPath(w http.ResponseWriter, r *http.Request) (string, string, int, bool) {
	setIndex, err := strconv.Atoi(r.PathValue("setIndex"))
	if err != nil || setIndex < 0 {
		app.notFound(w, r)
		return "", "", 0, false
	}
	return r.PathValue("id"), r.PathValue("exerciseID"), setIndex, true
}
