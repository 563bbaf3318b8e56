package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

type percentageRow struct {
	Set        int     `json:"set"`
	Reps       string  `json:"reps"`
	Percentage float64 `json:"percentage"`
}

type percentageWeek struct {
	Week   int             `json:"week"`
	Label  string          `json:"label"`
	Scheme string          `json:"scheme"`
	Sets   []percentageRow `json:"sets"`
}

func percentageWeeks() []percentageWeek {
	weeks := make([]percentageWeek, 0, 4) //nolint:mnd // weeks per cycle
	for week := 1; week <= 4; week++ {
		pw := percentageWeek{
			Week:   week,
			Label:  fivethreeone.WeekLabel(week),
			Scheme: fivethreeone.WeekScheme(week),
			Sets:   nil,
		}
		for _, s := range fivethreeone.WeekPercentages(week) {
			pw.Sets = append(pw.Sets, percentageRow{Set: s.Number, Reps: s.Reps.String(), Percentage: *s.Percentage})
		}
		weeks = append(weeks, pw)
	}
	return weeks
}

func (h *handlers) percentageTable(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(percentageWeeks())
	if err != nil {
		return nil, fmt.Errorf("marshal percentage table: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
