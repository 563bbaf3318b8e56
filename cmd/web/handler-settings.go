package main

import (
	"net/http"

	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

type liftMax struct {
	Field       string
	Lift        fivethreeone.LiftType
	TrainingMax float64
	// OneRepMax is estimated back from the training max to prefill the form.
	OneRepMax float64
}

type settingsTemplateData struct {
	BaseTemplateData
	Profile       fivethreeone.Profile
	WeightClasses []string
	Maxes         []liftMax
}

func liftMaxes(tm fivethreeone.Lifts) []liftMax {
	fields := map[fivethreeone.LiftType]string{
		fivethreeone.LiftSquat:      "squat",
		fivethreeone.LiftBenchPress: "bench_press",
		fivethreeone.LiftDeadlift:   "deadlift",
		fivethreeone.LiftPowerClean: "power_clean",
	}
	maxes := make([]liftMax, 0, len(fields))
	for _, lift := range fivethreeone.MainLifts() {
		maxes = append(maxes, liftMax{
			Field:       fields[lift],
			Lift:        lift,
			TrainingMax: tm.Get(lift),
			OneRepMax:   fivethreeone.OneRepMaxFromTrainingMax(tm.Get(lift)),
		})
	}
	return maxes
}

func (app *application) settingsGET(w http.ResponseWriter, r *http.Request) {
	profile, err := app.training.Profile()
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "settings", settingsTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Profile:          profile,
		WeightClasses:    weightClasses,
		Maxes:            liftMaxes(profile.TrainingMaxes),
	})
}

func (app *application) settingsProfilePOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.unprocessable(w, r, "The form could not be read.")
		return
	}
	if _, err := app.training.UpdateProfile(r.Context(),
		r.PostForm.Get("name"), r.PostForm.Get("weight_class")); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.redirectWithFlash(w, r, "/settings", "Profile saved.")
}

func (app *application) settingsTrainingMaxesPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.unprocessable(w, r, "The form could not be read.")
		return
	}
	oneRepMaxes, err := parseOneRepMaxes(r)
	if err != nil {
		app.unprocessable(w, r, err.Error())
		return
	}
	if _, err = app.training.UpdateOneRepMaxes(r.Context(), oneRepMaxes); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.redirectWithFlash(w, r, "/settings", "Training maxes recalculated.")
}

func (app *application) settingsAdvancePOST(w http.ResponseWriter, r *http.Request) {
	profile, err := app.training.Advance(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	msg := "Moved on to " + fivethreeone.WeekLabel(profile.CurrentCycle.Week) + "."
	if profile.CurrentCycle.Week == 1 {
		msg = "Cycle complete. Training maxes went up."
	}
	app.redirectWithFlash(w, r, "/", msg)
}

func (app *application) settingsResetPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.training.Reset(r.Context()); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.redirectWithFlash(w, r, "/", "All data was deleted.")
}
