package main

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const (
	squatDayID     = "workout-1-1-1"
	backSquatID    = squatDayID + "-SQUAT-BackSquat"
	backSquatSets  = "/workouts/" + squatDayID + "/exercises/" + backSquatID + "/sets/"
	squatDayAMRAP  = 4
	squatDayPath   = "/workouts/" + squatDayID
	squatDayFinish = squatDayPath + "/complete"
)

func mainSets(doc *goquery.Document) *goquery.Selection {
	return doc.Find("[data-test-id=main] .set")
}

func Test_application_workout(t *testing.T) {
	var (
		ctx    = t.Context()
		server = startServer(t)
		client = server.Client()
		doc    *goquery.Document
		err    error
	)
	setUpAthlete(ctx, t, client)

	t.Run("Current workout", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/workouts/current"); err != nil {
			t.Fatalf("Failed to get current workout: %v", err)
		}
		if doc.Url.Path != squatDayPath {
			t.Errorf("Expected redirect to %s, got %s", squatDayPath, doc.Url.Path)
		}
		if got := doc.Find("h1").Text(); got != "Squat Day" {
			t.Errorf("Expected Squat Day, got %q", got)
		}

		var prescriptions []string
		mainSets(doc).Each(func(_ int, s *goquery.Selection) {
			prescriptions = append(prescriptions, strings.Join(strings.Fields(s.Find(".prescription").Text()), " "))
		})
		want := []string{"45 lb × 5", "110 lb × 5", "175 lb × 5 65%", "205 lb × 5 75%", "230 lb × 5+ 85%"}
		if strings.Join(prescriptions, "|") != strings.Join(want, "|") {
			t.Errorf("Main lift sets\n got %q\nwant %q", prescriptions, want)
		}
		if got := doc.Find("[data-test-id=supplementary] .exercise h3").Text(); got != "Front Squat" {
			t.Errorf("Expected Front Squat as supplementary lift, got %q", got)
		}
		if got := doc.Find("[data-test-id=assistance] .exercise").Length(); got == 0 {
			t.Error("Expected assistance exercises")
		}
	})

	t.Run("Toggle set", func(t *testing.T) {
		if doc, err = client.SubmitForm(ctx, doc, backSquatSets+"0/toggle", nil); err != nil {
			t.Fatalf("Failed to toggle set: %v", err)
		}
		if !mainSets(doc).First().HasClass("completed") {
			t.Error("Expected the first set to be completed")
		}
		if doc, err = client.SubmitForm(ctx, doc, backSquatSets+"0/toggle", nil); err != nil {
			t.Fatalf("Failed to toggle set: %v", err)
		}
		if mainSets(doc).First().HasClass("completed") {
			t.Error("Expected the first set to be pending again")
		}
	})

	t.Run("Record AMRAP", func(t *testing.T) {
		doc, err = client.SubmitForm(ctx, doc, backSquatSets+"4/amrap", map[string]string{"Reps": "8"})
		if err != nil {
			t.Fatalf("Failed to record AMRAP: %v", err)
		}
		amrap := mainSets(doc).Eq(squatDayAMRAP)
		if !amrap.HasClass("completed") {
			t.Error("Expected the AMRAP set to be completed")
		}
		if got := amrap.Find("input[name=reps]").AttrOr("value", ""); got != "8" {
			t.Errorf("Expected recorded reps 8, got %q", got)
		}
	})

	t.Run("Invalid input", func(t *testing.T) {
		tests := []struct {
			name   string
			path   string
			reps   string
			status int
		}{
			{name: "negative reps", path: backSquatSets + "4/amrap", reps: "-1", status: http.StatusUnprocessableEntity},
			{name: "not a number", path: backSquatSets + "4/amrap", reps: "many", status: http.StatusUnprocessableEntity},
			{name: "regular set", path: backSquatSets + "2/amrap", reps: "5", status: http.StatusUnprocessableEntity},
			{name: "unknown set", path: backSquatSets + "99/amrap", reps: "5", status: http.StatusNotFound},
			{name: "bad set index", path: backSquatSets + "first/amrap", reps: "5", status: http.StatusNotFound},
			{name: "unknown exercise", path: squatDayPath + "/exercises/nope/sets/0/amrap", reps: "5",
				status: http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, postErr := client.PostForm(ctx, tt.path, url.Values{"reps": {tt.reps}})
				if postErr != nil {
					t.Fatalf("Failed to post: %v", postErr)
				}
				defer resp.Body.Close()
				if resp.StatusCode != tt.status {
					t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
				}
			})
		}
	})

	t.Run("Complete workout", func(t *testing.T) {
		if doc, err = client.SubmitForm(ctx, doc, squatDayFinish, nil); err != nil {
			t.Fatalf("Failed to complete workout: %v", err)
		}
		if doc.Url.Path != "/" {
			t.Errorf("Expected redirect to dashboard, got %s", doc.Url.Path)
		}
		if got := doc.Find(".flash").Text(); got != "Squat Day completed." {
			t.Errorf("Unexpected flash %q", got)
		}
		days := doc.Find(".days li")
		if !days.Eq(0).HasClass("completed") || !days.Eq(1).HasClass("next") {
			t.Error("Expected day 1 completed and day 2 up next")
		}

		if doc, err = client.GetDoc(ctx, "/workouts/current"); err != nil {
			t.Fatalf("Failed to get current workout: %v", err)
		}
		if got := doc.Find("h1").Text(); got != "Bench Day" {
			t.Errorf("Expected Bench Day next, got %q", got)
		}
	})

	t.Run("Completed workout has no complete form", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, squatDayPath); err != nil {
			t.Fatalf("Failed to get workout: %v", err)
		}
		if doc.Find("[data-test-id=completed]").Length() != 1 {
			t.Error("Expected completed badge")
		}
		if doc.Find("form[action='" + squatDayFinish + "']").Length() != 0 {
			t.Error("Expected no complete form on a completed workout")
		}
	})

	t.Run("Regenerate next workout", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/workouts/current"); err != nil {
			t.Fatalf("Failed to get current workout: %v", err)
		}
		if doc, err = client.SubmitForm(ctx, doc, "/workouts/generate", nil); err != nil {
			t.Fatalf("Failed to regenerate workout: %v", err)
		}
		if got := doc.Find("h1").Text(); got != "Bench Day" {
			t.Errorf("Expected Bench Day, got %q", got)
		}
		if got := doc.Find(".flash").Text(); !strings.Contains(got, "regenerated") {
			t.Errorf("Expected regenerated flash, got %q", got)
		}
	})
}
