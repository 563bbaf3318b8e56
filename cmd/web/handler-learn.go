package main

import (
	"io/fs"
	"net/http"

	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

type weekTable struct {
	Week   int
	Sets   []fivethreeone.Set
	Deload bool
}

type learnTemplateData struct {
	BaseTemplateData
	Markdown string
	Weeks    []weekTable
}

func (app *application) learnGET(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(app.templateFS, "pages/learn/learn.md")
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	data := learnTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Markdown:         string(content),
		Weeks:            make([]weekTable, 0, 4), //nolint:mnd // weeks per cycle
	}
	for week := 1; week <= 4; week++ {
		data.Weeks = append(data.Weeks, weekTable{
			Week:   week,
			Sets:   fivethreeone.WeekPercentages(week),
			Deload: week == 4, //nolint:mnd // deload week
		})
	}
	app.render(w, r, http.StatusOK, "learn", data)
}
