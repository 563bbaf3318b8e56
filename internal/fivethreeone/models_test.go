package fivethreeone_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

func TestReps_JSON(t *testing.T) {
	type wrapper struct {
		Reps []fivethreeone.Reps `json:"reps"`
	}
	in := wrapper{Reps: []fivethreeone.Reps{fivethreeone.FixedReps(5), fivethreeone.AMRAPReps(3)}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"reps":[5,"3+"]}`; got != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}

	var out wrapper
	if err = json.Unmarshal([]byte(`{"reps":[5,"3+","8"]}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []fivethreeone.Reps{fivethreeone.FixedReps(5), fivethreeone.AMRAPReps(3), fivethreeone.FixedReps(8)}
	if diff := cmp.Diff(want, out.Reps); diff != "" {
		t.Errorf("unmarshal mismatch (-want +got):\n%s", diff)
	}

	if err = json.Unmarshal([]byte(`{"reps":[true]}`), &out); err == nil {
		t.Error("expected error for boolean reps")
	}
}

func TestParseReps(t *testing.T) {
	tests := []struct {
		in      string
		want    fivethreeone.Reps
		wantErr bool
	}{
		{in: "5", want: fivethreeone.FixedReps(5)},
		{in: "1+", want: fivethreeone.AMRAPReps(1)},
		{in: " 3+ ", want: fivethreeone.AMRAPReps(3)},
		{in: "five", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := fivethreeone.ParseReps(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseReps(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseReps(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseLiftType(t *testing.T) {
	if l, err := fivethreeone.ParseLiftType("bench_press"); err != nil || l != fivethreeone.LiftBenchPress {
		t.Errorf("ParseLiftType(bench_press) = %s, %v", l, err)
	}
	if _, err := fivethreeone.ParseLiftType("curl"); err == nil {
		t.Error("expected error for unknown lift")
	}
}

func TestWorkout_JSONRoundTrip(t *testing.T) {
	program := testProgram()
	tmpl, _ := program.Catalog.Template(2)
	w := program.AssembleWorkout(tmpl, testProfile(), 1, 1)
	reps := 11
	w.Exercises[0].Sets[4].ActualReps = &reps
	w.Exercises[0].Sets[4].Completed = true

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got fivethreeone.Workout
	if err = json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(w, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
