package main

import (
	"net/http"
	"slices"

	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

type liftProgress struct {
	Lift        fivethreeone.LiftType
	TrainingMax float64
	Latest      *fivethreeone.AMRAPResult
	// History is newest first.
	History []fivethreeone.AMRAPResult
}

type progressTemplateData struct {
	BaseTemplateData
	Profile           fivethreeone.Profile
	CompletedWorkouts int
	TotalVolume       float64
	Lifts             []liftProgress
}

func (app *application) progressGET(w http.ResponseWriter, r *http.Request) {
	profile, err := app.training.Profile()
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	progress := app.training.Progress()

	data := progressTemplateData{
		BaseTemplateData:  newBaseTemplateData(r),
		Profile:           profile,
		CompletedWorkouts: progress.CompletedWorkouts,
		TotalVolume:       progress.TotalVolume,
		Lifts:             make([]liftProgress, 0, len(fivethreeone.MainLifts())),
	}
	for _, lift := range fivethreeone.MainLifts() {
		lp := liftProgress{
			Lift:        lift,
			TrainingMax: profile.TrainingMaxes.Get(lift),
			Latest:      nil,
			History:     slices.Clone(progress.AMRAPHistory[lift]),
		}
		slices.Reverse(lp.History)
		if latest, ok := progress.LatestAMRAP[lift]; ok {
			lp.Latest = &latest
		}
		data.Lifts = append(data.Lifts, lp)
	}
	app.render(w, r, http.StatusOK, "progress", data)
}
