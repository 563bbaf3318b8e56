package main

import (
	"net/http"
	"strings"

	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/training"
)

// weightClasses are the wrestling weight classes in pounds.
//
//nolint:gochecknoglobals // constant list.
var weightClasses = []string{
	"106", "113", "120", "126", "132", "138", "144", "150", "157", "165", "175", "190", "215", "285",
}

type setupTemplateData struct {
	BaseTemplateData
	WeightClasses []string
}

type dayView struct {
	Workout   fivethreeone.Workout
	IsNext    bool
	Completed bool
}

type homeTemplateData struct {
	BaseTemplateData
	Profile fivethreeone.Profile
	Days    []dayView
	// WeekDone is set when every workout of the week is completed.
	WeekDone bool
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	profile, err := app.training.Profile()
	if errors.Is(err, training.ErrNoProfile) {
		app.render(w, r, http.StatusOK, "setup", setupTemplateData{
			BaseTemplateData: newBaseTemplateData(r),
			WeightClasses:    weightClasses,
		})
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := homeTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Profile:          profile,
		Days:             nil,
		WeekDone:         true,
	}
	for _, wo := range app.training.Workouts() {
		if wo.Cycle != profile.CurrentCycle.Number || wo.Week != profile.CurrentCycle.Week {
			continue
		}
		day := dayView{Workout: wo, IsNext: false, Completed: wo.Completed}
		if !wo.Completed && data.WeekDone {
			day.IsNext = true
			data.WeekDone = false
		}
		data.Days = append(data.Days, day)
	}
	app.render(w, r, http.StatusOK, "home", data)
}

func (app *application) setupPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.unprocessable(w, r, "The form could not be read.")
		return
	}
	oneRepMaxes, err := parseOneRepMaxes(r)
	if err != nil {
		app.unprocessable(w, r, err.Error())
		return
	}

	profile, err := app.training.Setup(r.Context(), training.SetupInput{
		Name:        r.PostForm.Get("name"),
		WeightClass: r.PostForm.Get("weight_class"),
		OneRepMaxes: oneRepMaxes,
	})
	switch {
	case errors.Is(err, training.ErrProfileExists):
		app.redirectWithFlash(w, r, "/", "An athlete is already set up.")
		return
	case err != nil:
		app.serviceError(w, r, err)
		return
	}
	app.redirectWithFlash(w, r, "/", "Welcome "+strings.TrimSpace(profile.Name)+". Cycle 1 is ready.")
}
