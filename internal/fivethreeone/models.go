package fivethreeone

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/wrestlestrong/internal/ptr"
)

// LiftType classifies an exercise. The four main lifts carry a training max, everything else is assistance.
type LiftType string

const (
	LiftSquat      LiftType = "SQUAT"
	LiftBenchPress LiftType = "BENCH_PRESS"
	LiftDeadlift   LiftType = "DEADLIFT"
	LiftPowerClean LiftType = "POWER_CLEAN"
	LiftAssistance LiftType = "ASSISTANCE"
)

// MainLifts returns the lifts that have a training max in the order they are trained.
func MainLifts() []LiftType {
	return []LiftType{LiftSquat, LiftBenchPress, LiftDeadlift, LiftPowerClean}
}

// IsMain reports whether the lift has a training max.
func (l LiftType) IsMain() bool {
	switch l {
	case LiftSquat, LiftBenchPress, LiftDeadlift, LiftPowerClean:
		return true
	case LiftAssistance:
		return false
	}
	return false
}

// IsUpperBody reports whether the lift progresses with the smaller upper body increment.
func (l LiftType) IsUpperBody() bool {
	return l == LiftBenchPress || l == LiftPowerClean
}

// DisplayName is the human readable name of the lift.
func (l LiftType) DisplayName() string {
	switch l {
	case LiftSquat:
		return "Squat"
	case LiftBenchPress:
		return "Bench Press"
	case LiftDeadlift:
		return "Deadlift"
	case LiftPowerClean:
		return "Power Clean"
	case LiftAssistance:
		return "Assistance"
	}
	return string(l)
}

// ParseLiftType parses the textual lift type.
func ParseLiftType(s string) (LiftType, error) {
	l := LiftType(strings.ToUpper(strings.TrimSpace(s)))
	if l.IsMain() || l == LiftAssistance {
		return l, nil
	}
	return "", fmt.Errorf("unknown lift type %q", s)
}

// Lifts holds one number per main lift. It is used for both training maxes and one-rep maxes.
type Lifts struct {
	Deadlift   float64 `json:"deadlift"`
	BenchPress float64 `json:"benchPress"`
	Squat      float64 `json:"squat"`
	PowerClean float64 `json:"powerClean"`
}

// Get returns the value for the given main lift. Assistance lifts return 0.
func (l Lifts) Get(lift LiftType) float64 {
	switch lift {
	case LiftSquat:
		return l.Squat
	case LiftBenchPress:
		return l.BenchPress
	case LiftDeadlift:
		return l.Deadlift
	case LiftPowerClean:
		return l.PowerClean
	case LiftAssistance:
		return 0
	}
	return 0
}

// Map returns a copy with fn applied to each lift.
func (l Lifts) Map(fn func(lift LiftType, value float64) float64) Lifts {
	return Lifts{
		Deadlift:   fn(LiftDeadlift, l.Deadlift),
		BenchPress: fn(LiftBenchPress, l.BenchPress),
		Squat:      fn(LiftSquat, l.Squat),
		PowerClean: fn(LiftPowerClean, l.PowerClean),
	}
}

// Cycle is the athlete's position in the program.
type Cycle struct {
	Number int `json:"number"`
	Week   int `json:"week"`
}

// Profile is the single athlete using the program.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WeightClass   string    `json:"weightClass"`
	TrainingMaxes Lifts     `json:"trainingMaxes"`
	CurrentCycle  Cycle     `json:"currentCycle"`
	StartDate     time.Time `json:"startDate"`
}

// Reps is a prescribed rep count. AMRAP sets are written as "5+" and mean "at least Count, as many as possible".
type Reps struct {
	Count int
	AMRAP bool
}

func FixedReps(count int) Reps {
	return Reps{Count: count, AMRAP: false}
}

func AMRAPReps(count int) Reps {
	return Reps{Count: count, AMRAP: true}
}

func (r Reps) String() string {
	if r.AMRAP {
		return strconv.Itoa(r.Count) + "+"
	}
	return strconv.Itoa(r.Count)
}

// ParseReps parses "5" or "5+".
func ParseReps(s string) (Reps, error) {
	s = strings.TrimSpace(s)
	amrap := strings.HasSuffix(s, "+")
	count, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
	if err != nil {
		return Reps{}, fmt.Errorf("parse reps %q: %w", s, err)
	}
	if count < 0 {
		return Reps{}, fmt.Errorf("negative reps %q", s)
	}
	return Reps{Count: count, AMRAP: amrap}, nil
}

// MarshalJSON writes fixed reps as a number and AMRAP reps as a string like "5+".
func (r Reps) MarshalJSON() ([]byte, error) {
	if r.AMRAP {
		return json.Marshal(r.String())
	}
	return json.Marshal(r.Count)
}

func (r *Reps) UnmarshalJSON(data []byte) error {
	var count int
	if err := json.Unmarshal(data, &count); err == nil {
		*r = FixedReps(count)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reps must be a number or a string: %w", err)
	}
	parsed, err := ParseReps(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// SetKind tells where a set sits in the workout.
type SetKind string

const (
	SetKindWarmUp        SetKind = "warm_up"
	SetKindWorking       SetKind = "working"
	SetKindSupplementary SetKind = "supplementary"
	SetKindAssistance    SetKind = "assistance"
)

// Set is a single prescribed set together with what the athlete recorded.
type Set struct {
	Number int     `json:"setNumber"`
	Kind   SetKind `json:"kind"`
	Reps   Reps    `json:"reps"`
	Weight float64 `json:"weight"`
	// Percentage of the training max, nil for warm-ups and assistance work.
	Percentage   *float64 `json:"percentage,omitempty"`
	Completed    bool     `json:"completed"`
	AMRAP        bool     `json:"isAmrap"`
	ActualReps   *int     `json:"actualReps,omitempty"`
	IsBodyweight bool     `json:"isBodyweight,omitempty"`
}

// Role is the slot an exercise fills in a workout.
type Role string

const (
	RoleMain          Role = "main"
	RoleSupplementary Role = "supplementary"
	RoleAssistance    Role = "assistance"
)

// Exercise is a named movement with its prescribed sets.
type Exercise struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lift LiftType `json:"type"`
	Role Role     `json:"role"`
	Sets []Set    `json:"sets"`
}

// Workout is one training day. Exercises are ordered: the main lift first, then the supplementary lift, then
// assistance work.
type Workout struct {
	ID        string     `json:"id"`
	Day       int        `json:"day"`
	Name      string     `json:"name"`
	Date      time.Time  `json:"date"`
	Cycle     int        `json:"cycle"`
	Week      int        `json:"week"`
	Completed bool       `json:"completed"`
	Exercises []Exercise `json:"exercises"`
}

func (w Workout) byRole(role Role) (Exercise, bool) {
	for _, e := range w.Exercises {
		if e.Role == role {
			return e, true
		}
	}
	return Exercise{}, false
}

// MainLift returns the main lift of the workout.
func (w Workout) MainLift() (Exercise, bool) {
	return w.byRole(RoleMain)
}

// SupplementaryLift returns the supplementary lift of the workout.
func (w Workout) SupplementaryLift() (Exercise, bool) {
	return w.byRole(RoleSupplementary)
}

// AssistanceExercises returns the assistance exercises in prescription order.
func (w Workout) AssistanceExercises() []Exercise {
	var out []Exercise
	for _, e := range w.Exercises {
		if e.Role == RoleAssistance {
			out = append(out, e)
		}
	}
	return out
}

// ExerciseIndex returns the position of the exercise with the given id or -1.
func (w Workout) ExerciseIndex(exerciseID string) int {
	for i, e := range w.Exercises {
		if e.ID == exerciseID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so that callers can never alias the sets of a stored workout.
func (w Workout) Clone() Workout {
	out := w
	out.Exercises = make([]Exercise, len(w.Exercises))
	for i, e := range w.Exercises {
		out.Exercises[i] = e
		out.Exercises[i].Sets = make([]Set, len(e.Sets))
		for j, s := range e.Sets {
			if s.Percentage != nil {
				s.Percentage = ptr.Ref(*s.Percentage)
			}
			if s.ActualReps != nil {
				s.ActualReps = ptr.Ref(*s.ActualReps)
			}
			out.Exercises[i].Sets[j] = s
		}
	}
	return out
}
