package training

import (
	"context"

	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

// Store persists the athlete and the workouts.
type Store interface {
	// LoadProfile returns ErrNotFound when no profile has been saved.
	LoadProfile(ctx context.Context) (fivethreeone.Profile, error)
	SaveProfile(ctx context.Context, profile fivethreeone.Profile) error
	// LoadWorkouts returns workouts in the order they were first saved.
	LoadWorkouts(ctx context.Context) ([]fivethreeone.Workout, error)
	// SaveWorkout inserts the workout or replaces the one with the same id.
	SaveWorkout(ctx context.Context, workout fivethreeone.Workout) error
	// ClearAll removes the profile and every workout.
	ClearAll(ctx context.Context) error
}
