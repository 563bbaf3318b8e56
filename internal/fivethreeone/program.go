package fivethreeone

import (
	"fmt"
	"strings"
	"time"
)

// Program turns a catalog and a profile into concrete workouts.
type Program struct {
	Catalog   Catalog
	BarWeight float64
	// Now stamps the date of assembled workouts.
	Now func() time.Time
}

// DefaultProgram returns the default catalog with a standard bar.
func DefaultProgram() Program {
	return Program{
		Catalog:   DefaultCatalog(),
		BarWeight: DefaultBarWeight,
		Now:       time.Now,
	}
}

// WorkoutID is deterministic so that the same training day of the same week is always the same workout.
func WorkoutID(cycle, week, day int) string {
	return fmt.Sprintf("workout-%d-%d-%d", cycle, week, day)
}

// ExerciseID is unique within a workout for the catalog in use.
func ExerciseID(workoutID string, lift LiftType, name string) string {
	return workoutID + "-" + string(lift) + "-" + strings.Join(strings.Fields(name), "")
}

func (p Program) now() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	// Stored timestamps keep millisecond precision.
	return now().UTC().Truncate(time.Millisecond)
}

func (p Program) barWeight() float64 {
	if p.BarWeight <= 0 {
		return DefaultBarWeight
	}
	return p.BarWeight
}

// WorkoutsPerWeek is the number of training days in the catalog.
func (p Program) WorkoutsPerWeek() int {
	return len(p.Catalog)
}

// AssembleWorkout builds the workout of a training day from the profile's training maxes.
func (p Program) AssembleWorkout(t Template, profile Profile, cycle, week int) Workout {
	id := WorkoutID(cycle, week, t.Day)
	maxes := profile.TrainingMaxes

	exercises := make([]Exercise, 0, 2+len(t.Assistance)) //nolint:mnd // main and supplementary
	exercises = append(exercises,
		Exercise{
			ID:   ExerciseID(id, t.Main.Lift, t.Main.Name),
			Name: t.Main.Name,
			Lift: t.Main.Lift,
			Role: RoleMain,
			Sets: MainLiftSetsWithBar(maxes.Get(t.Main.Lift), week, p.barWeight()),
		},
		Exercise{
			ID:   ExerciseID(id, t.Supplementary.Lift, t.Supplementary.Name),
			Name: t.Supplementary.Name,
			Lift: t.Supplementary.Lift,
			Role: RoleSupplementary,
			Sets: SupplementarySets(
				maxes.Get(t.Supplementary.Lift),
				t.Supplementary.RepScheme,
				t.Supplementary.PercentageOfTM,
			),
		},
	)
	for _, a := range t.Assistance {
		exercises = append(exercises, Exercise{
			ID:   ExerciseID(id, LiftAssistance, a.Name),
			Name: a.Name,
			Lift: LiftAssistance,
			Role: RoleAssistance,
			Sets: assistanceSets(a, maxes),
		})
	}

	return Workout{
		ID:        id,
		Day:       t.Day,
		Name:      t.Name,
		Date:      p.now(),
		Cycle:     cycle,
		Week:      week,
		Completed: false,
		Exercises: exercises,
	}
}

func assistanceSets(a AssistanceSpec, maxes Lifts) []Set {
	weight := 0.0
	if !a.Bodyweight {
		weight = AssistanceWeight(a.Name, maxes)
	}
	sets := make([]Set, 0, a.Sets)
	for i := range a.Sets {
		sets = append(sets, Set{
			Number:       i + 1,
			Kind:         SetKindAssistance,
			Reps:         FixedReps(a.Reps),
			Weight:       weight,
			IsBodyweight: a.Bodyweight,
		})
	}
	return sets
}

// GenerateCycleWorkouts assembles every workout of the profile's current cycle, week by week in catalog order.
func (p Program) GenerateCycleWorkouts(profile Profile) []Workout {
	cycle := profile.CurrentCycle.Number
	workouts := make([]Workout, 0, weeksPerCycle*len(p.Catalog))
	for week := 1; week <= weeksPerCycle; week++ {
		for _, t := range p.Catalog {
			workouts = append(workouts, p.AssembleWorkout(t, profile, cycle, week))
		}
	}
	return workouts
}

// NextWorkout returns the first workout of the current week whose id is not in completed.
//
// It returns false when every training day of the week is done.
func (p Program) NextWorkout(profile Profile, completed map[string]bool) (Workout, bool) {
	week := profile.CurrentCycle.Week
	for _, t := range p.Catalog {
		if completed[WorkoutID(profile.CurrentCycle.Number, week, t.Day)] {
			continue
		}
		return p.AssembleWorkout(t, profile, profile.CurrentCycle.Number, week), true
	}
	return Workout{}, false
}

// Advance returns the cycle position after finishing the current week and whether a new cycle started.
func Advance(c Cycle) (Cycle, bool) {
	if c.Week < weeksPerCycle {
		return Cycle{Number: c.Number, Week: c.Week + 1}, false
	}
	return Cycle{Number: c.Number + 1, Week: 1}, true
}
