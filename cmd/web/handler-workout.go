package main

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/training"
)

type setView struct {
	Index int
	fivethreeone.Set
}

type exerciseView struct {
	fivethreeone.Exercise
	WorkoutID string
	Sets      []setView
}

type workoutTemplateData struct {
	BaseTemplateData
	Workout       fivethreeone.Workout
	Main          exerciseView
	Supplementary exerciseView
	Assistance    []exerciseView
}

func newExerciseView(workoutID string, e fivethreeone.Exercise) exerciseView {
	sets := make([]setView, 0, len(e.Sets))
	for i, s := range e.Sets {
		sets = append(sets, setView{Index: i, Set: s})
	}
	return exerciseView{Exercise: e, WorkoutID: workoutID, Sets: sets}
}

func workoutPath(id string) string {
	return "/workouts/" + url.PathEscape(id)
}

func (app *application) workoutCurrentGET(w http.ResponseWriter, r *http.Request) {
	wo, err := app.training.CurrentWorkout(r.Context())
	if errors.Is(err, training.ErrNoPendingWorkout) {
		app.redirectWithFlash(w, r, "/", "Every workout of this week is done. Advance from the settings.")
		return
	}
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	redirect(w, r, workoutPath(wo.ID))
}

func (app *application) workoutGeneratePOST(w http.ResponseWriter, r *http.Request) {
	wo, err := app.training.GenerateNewWorkout(r.Context())
	if errors.Is(err, training.ErrNoPendingWorkout) {
		app.redirectWithFlash(w, r, "/", "Every workout of this week is done.")
		return
	}
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.redirectWithFlash(w, r, workoutPath(wo.ID), "Workout regenerated from your current training maxes.")
}

func (app *application) workoutGET(w http.ResponseWriter, r *http.Request) {
	wo, err := app.training.Workout(r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}

	data := workoutTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Workout:          wo,
		Main:             exerciseView{},
		Supplementary:    exerciseView{},
		Assistance:       nil,
	}
	if main, ok := wo.MainLift(); ok {
		data.Main = newExerciseView(wo.ID, main)
	}
	if supplementary, ok := wo.SupplementaryLift(); ok {
		data.Supplementary = newExerciseView(wo.ID, supplementary)
	}
	for _, e := range wo.AssistanceExercises() {
		data.Assistance = append(data.Assistance, newExerciseView(wo.ID, e))
	}
	app.render(w, r, http.StatusOK, "workout", data)
}

func (app *application) workoutCompletePOST(w http.ResponseWriter, r *http.Request) {
	before, err := app.training.Profile()
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	wo, err := app.training.CompleteWorkout(r.Context(), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	msg := wo.Name + " completed."
	if after, profileErr := app.training.Profile(); profileErr == nil && after.CurrentCycle != before.CurrentCycle {
		msg += " Week " + strconv.Itoa(after.CurrentCycle.Week) + " of cycle " +
			strconv.Itoa(after.CurrentCycle.Number) + " starts now."
	}
	app.redirectWithFlash(w, r, "/", msg)
}

func (app *application) setTogglePOST(w http.ResponseWriter, r *http.Request) {
	workoutID, exerciseID, setIndex, ok := app.parseSetPath(w, r)
	if !ok {
		return
	}
	if _, err := app.training.ToggleSetCompletion(r.Context(), workoutID, exerciseID, setIndex); err != nil {
		app.serviceError(w, r, err)
		return
	}
	redirect(w, r, workoutPath(workoutID))
}

func (app *application) setAMRAPPOST(w http.ResponseWriter, r *http.Request) {
	workoutID, exerciseID, setIndex, ok := app.parseSetPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		app.unprocessable(w, r, "The form could not be read.")
		return
	}
	reps, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("reps")))
	if err != nil || reps < 0 {
		app.unprocessable(w, r, "Reps must be a whole number of zero or more.")
		return
	}
	if _, err = app.training.RecordAMRAPResult(r.Context(), workoutID, exerciseID, setIndex, reps); err != nil {
		app.serviceError(w, r, err)
		return
	}
	redirect(w, r, workoutPath(workoutID))
}
