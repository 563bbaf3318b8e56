package fivethreeone

import (
	"slices"
	"time"
)

// AMRAPResult is a recorded all-out set.
type AMRAPResult struct {
	WorkoutID          string    `json:"workoutId"`
	Date               time.Time `json:"date"`
	Cycle              int       `json:"cycle"`
	Week               int       `json:"week"`
	Weight             float64   `json:"weight"`
	Reps               int       `json:"reps"`
	EstimatedOneRepMax float64   `json:"estimatedOneRepMax"`
}

// Progress summarizes the training history.
type Progress struct {
	CompletedWorkouts int                        `json:"completedWorkouts"`
	TotalVolume       float64                    `json:"totalVolume"`
	AMRAPHistory      map[LiftType][]AMRAPResult `json:"amrapHistory"`
	LatestAMRAP       map[LiftType]AMRAPResult   `json:"latestAmrap"`
}

// Summarize computes progress from completed workouts.
//
// Volume counts completed sets only. Main lift sets use the recorded reps when there are any, bodyweight assistance
// sets add nothing.
func Summarize(workouts []Workout) Progress {
	p := Progress{
		CompletedWorkouts: 0,
		TotalVolume:       0,
		AMRAPHistory:      make(map[LiftType][]AMRAPResult),
		LatestAMRAP:       make(map[LiftType]AMRAPResult),
	}
	for _, w := range workouts {
		if !w.Completed {
			continue
		}
		p.CompletedWorkouts++
		p.TotalVolume += workoutVolume(w)
		for _, e := range w.Exercises {
			if e.Role != RoleMain {
				continue
			}
			for _, s := range e.Sets {
				if !s.AMRAP || s.ActualReps == nil {
					continue
				}
				p.AMRAPHistory[e.Lift] = append(p.AMRAPHistory[e.Lift], AMRAPResult{
					WorkoutID:          w.ID,
					Date:               w.Date,
					Cycle:              w.Cycle,
					Week:               w.Week,
					Weight:             s.Weight,
					Reps:               *s.ActualReps,
					EstimatedOneRepMax: EstimatedOneRepMax(s.Weight, *s.ActualReps),
				})
			}
		}
	}
	for lift, history := range p.AMRAPHistory {
		slices.SortStableFunc(history, func(a, b AMRAPResult) int {
			return a.Date.Compare(b.Date)
		})
		p.LatestAMRAP[lift] = history[len(history)-1]
	}
	return p
}

func workoutVolume(w Workout) float64 {
	var volume float64
	for _, e := range w.Exercises {
		for _, s := range e.Sets {
			if !s.Completed {
				continue
			}
			switch e.Role {
			case RoleMain:
				reps := s.Reps.Count
				if s.ActualReps != nil {
					reps = *s.ActualReps
				}
				volume += s.Weight * float64(reps)
			case RoleSupplementary:
				volume += s.Weight * float64(s.Reps.Count)
			case RoleAssistance:
				if !s.IsBodyweight {
					volume += s.Weight * float64(s.Reps.Count)
				}
			}
		}
	}
	return volume
}
