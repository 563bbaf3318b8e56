package training

import "github.com/myrjola/wrestlestrong/internal/errors"

//nolint:gochecknoglobals // sentinel errors.
var (
	// ErrNotFound is returned when a workout, exercise or set does not exist, or when the store holds no profile.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrNoProfile is returned by operations that need an athlete before one has been set up.
	ErrNoProfile = errors.NewSentinel("no athlete profile")
	// ErrProfileExists is returned when setting up a second athlete.
	ErrProfileExists = errors.NewSentinel("athlete profile already exists")
	// ErrNoPendingWorkout is returned when every workout of the current week is completed.
	ErrNoPendingWorkout = errors.NewSentinel("no pending workout this week")
	// ErrNotAMRAP is returned when recording an AMRAP result on a regular set.
	ErrNotAMRAP = errors.NewSentinel("set is not AMRAP")
	// ErrInvalidInput is returned for negative reps, weights or training maxes.
	ErrInvalidInput = errors.NewSentinel("invalid input")
	// ErrPersistence wraps store failures. The in-memory state has already changed when it is returned.
	ErrPersistence = errors.NewSentinel("persist training state")
)
