// Package training keeps the athlete's progress through the 5/3/1 program.
//
// The Service holds the athlete and the workouts in memory and mirrors every change to a Store. Reads never touch
// the store. Writes are applied in the order the mutations happened, and a failed write leaves the in-memory state
// changed while the caller gets an error wrapping ErrPersistence.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/ptr"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures a Service. Only Store is required.
type Config struct {
	Store  Store
	Logger *slog.Logger
	// Program defaults to fivethreeone.DefaultProgram.
	Program fivethreeone.Program
	// Metrics defaults to metrics registered with a private registry.
	Metrics *Metrics
	// NewID generates athlete ids and defaults to random UUIDs.
	NewID func() string
}

// Service is safe for concurrent use.
type Service struct {
	store   Store
	logger  *slog.Logger
	program fivethreeone.Program
	metrics *Metrics
	newID   func() string

	// mu guards the fields below.
	mu        sync.RWMutex
	profile   *fivethreeone.Profile
	workouts  []fivethreeone.Workout
	index     map[string]int
	currentID string

	// nextTicket orders commits. Guarded by mu.
	nextTicket uint64

	// persistMu guards persisted, the ticket whose writes may go to the store next.
	persistMu   sync.Mutex
	persistCond *sync.Cond
	persisted   uint64
}

// write is a pending store operation over a snapshot of the state.
type write func(ctx context.Context, store Store) error

func saveProfile(p fivethreeone.Profile) write {
	return func(ctx context.Context, store Store) error {
		return errors.Wrap(store.SaveProfile(ctx, p), "save profile")
	}
}

func saveWorkout(w fivethreeone.Workout) write {
	w = w.Clone()
	return func(ctx context.Context, store Store) error {
		return errors.Wrap(store.SaveWorkout(ctx, w), "save workout", slog.String("workout_id", w.ID))
	}
}

// NewService loads the state from cfg.Store.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	s := &Service{
		store:   cfg.Store,
		logger:  cfg.Logger,
		program: cfg.Program,
		metrics: cfg.Metrics,
		newID:   cfg.NewID,
		index:   make(map[string]int),
	}
	s.persistCond = sync.NewCond(&s.persistMu)
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if len(s.program.Catalog) == 0 {
		defaults := fivethreeone.DefaultProgram()
		s.program.Catalog = defaults.Catalog
		if s.program.BarWeight <= 0 {
			s.program.BarWeight = defaults.BarWeight
		}
	}
	if s.program.Now == nil {
		s.program.Now = time.Now
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.NewRegistry())
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	profile, err := s.store.LoadProfile(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "load profile")
	default:
		s.profile = &profile
	}
	workouts, err := s.store.LoadWorkouts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load workouts")
	}
	for _, w := range workouts {
		s.put(w)
	}

	s.mu.Lock()
	var writes []write
	if s.profile != nil {
		// Heal a cycle that was only partially saved.
		writes = s.addCycleWorkoutsLocked()
	}
	s.observeLocked()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "training state loaded",
		slog.Bool("has_profile", s.profile != nil),
		slog.Int("workouts", len(s.workouts)),
		slog.Int("healed", len(writes)))
	if err = s.commit(ctx, writes...); err != nil {
		return nil, err
	}
	return s, nil
}

// Program returns the program the service generates workouts with.
func (s *Service) Program() fivethreeone.Program {
	return s.program
}

// put inserts w or replaces the workout with the same id. Must hold mu.
func (s *Service) put(w fivethreeone.Workout) {
	if i, ok := s.index[w.ID]; ok {
		s.workouts[i] = w
		return
	}
	s.index[w.ID] = len(s.workouts)
	s.workouts = append(s.workouts, w)
}

// commit releases mu and applies writes to the store. Must hold mu for writing.
//
// Commits reach the store in the order they took mu without holding it while they wait.
func (s *Service) commit(ctx context.Context, writes ...write) error {
	ticket := s.nextTicket
	s.nextTicket++
	s.mu.Unlock()

	s.persistMu.Lock()
	for s.persisted != ticket {
		s.persistCond.Wait()
	}
	s.persistMu.Unlock()
	defer func() {
		s.persistMu.Lock()
		s.persisted++
		s.persistCond.Broadcast()
		s.persistMu.Unlock()
	}()

	// The in-memory state has changed already so the store must follow even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, w := range writes {
		if err := w(ctx, s.store); err != nil {
			s.metrics.PersistenceFailures.Inc()
			s.logger.LogAttrs(ctx, slog.LevelError, "persist training state", errors.SlogError(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPersistence, errors.Join(errs...))
	}
	return nil
}

// observeLocked updates the position gauges. Must hold mu.
func (s *Service) observeLocked() {
	if s.profile == nil {
		s.metrics.CurrentCycle.Set(0)
		s.metrics.CurrentWeek.Set(0)
		return
	}
	s.metrics.CurrentCycle.Set(float64(s.profile.CurrentCycle.Number))
	s.metrics.CurrentWeek.Set(float64(s.profile.CurrentCycle.Week))
}

// addCycleWorkoutsLocked stores the workouts of the current cycle that do not exist yet.
//
// Existing workouts keep their sets and completion state. Must hold mu.
func (s *Service) addCycleWorkoutsLocked() []write {
	var writes []write
	for _, w := range s.program.GenerateCycleWorkouts(*s.profile) {
		if _, ok := s.index[w.ID]; ok {
			continue
		}
		s.put(w)
		writes = append(writes, saveWorkout(w))
	}
	return writes
}

func validateOneRepMaxes(maxes fivethreeone.Lifts) error {
	var errs []error
	for _, lift := range fivethreeone.MainLifts() {
		v := maxes.Get(lift)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s one-rep max %v", ErrInvalidInput, lift, v))
		}
	}
	return errors.Join(errs...)
}

// SetupInput describes a new athlete.
type SetupInput struct {
	Name        string
	WeightClass string
	OneRepMaxes fivethreeone.Lifts
}

// Setup creates the athlete at cycle 1, week 1 and generates the workouts of the first cycle.
//
// Training maxes are 90% of the given one-rep maxes. Setup returns ErrProfileExists if an athlete exists already.
func (s *Service) Setup(ctx context.Context, in SetupInput) (fivethreeone.Profile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fivethreeone.Profile{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateOneRepMaxes(in.OneRepMaxes); err != nil {
		return fivethreeone.Profile{}, err
	}

	s.mu.Lock()
	if s.profile != nil {
		s.mu.Unlock()
		return fivethreeone.Profile{}, ErrProfileExists
	}
	profile := fivethreeone.Profile{
		ID:          s.newID(),
		Name:        name,
		WeightClass: strings.TrimSpace(in.WeightClass),
		TrainingMaxes: in.OneRepMaxes.Map(func(_ fivethreeone.LiftType, v float64) float64 {
			return fivethreeone.TrainingMax(v)
		}),
		CurrentCycle: fivethreeone.Cycle{Number: 1, Week: 1},
		StartDate:    s.program.Now().UTC().Truncate(time.Millisecond),
	}
	stored := profile
	s.profile = &stored
	s.currentID = ""
	writes := append([]write{saveProfile(profile)}, s.addCycleWorkoutsLocked()...)
	s.observeLocked()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "athlete set up",
		slog.String("athlete_id", profile.ID),
		slog.Int("workouts", len(writes)-1))
	return profile, s.commit(ctx, writes...)
}

// Profile returns the athlete or ErrNoProfile.
func (s *Service) Profile() (fivethreeone.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return fivethreeone.Profile{}, ErrNoProfile
	}
	return *s.profile, nil
}

// UpdateProfile changes the athlete's name and weight class.
func (s *Service) UpdateProfile(ctx context.Context, name, weightClass string) (fivethreeone.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fivethreeone.Profile{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return fivethreeone.Profile{}, ErrNoProfile
	}
	s.profile.Name = name
	s.profile.WeightClass = strings.TrimSpace(weightClass)
	profile := *s.profile
	return profile, s.commit(ctx, saveProfile(profile))
}

// UpdateOneRepMaxes recalculates the training maxes from new one-rep maxes.
//
// Workouts of the current cycle that have not been started are reassembled with the new training maxes. Workouts
// with a completed set keep their prescription.
func (s *Service) UpdateOneRepMaxes(ctx context.Context, oneRepMaxes fivethreeone.Lifts) (fivethreeone.Profile, error) {
	if err := validateOneRepMaxes(oneRepMaxes); err != nil {
		return fivethreeone.Profile{}, err
	}
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return fivethreeone.Profile{}, ErrNoProfile
	}
	s.profile.TrainingMaxes = oneRepMaxes.Map(func(_ fivethreeone.LiftType, v float64) float64 {
		return fivethreeone.TrainingMax(v)
	})
	profile := *s.profile
	writes := []write{saveProfile(profile)}
	for _, fresh := range s.program.GenerateCycleWorkouts(profile) {
		i, ok := s.index[fresh.ID]
		if !ok || started(s.workouts[i]) {
			continue
		}
		fresh.Date = s.workouts[i].Date
		s.workouts[i] = fresh
		writes = append(writes, saveWorkout(fresh))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "training maxes updated",
		slog.Float64("squat", profile.TrainingMaxes.Squat),
		slog.Float64("bench_press", profile.TrainingMaxes.BenchPress),
		slog.Float64("deadlift", profile.TrainingMaxes.Deadlift),
		slog.Float64("power_clean", profile.TrainingMaxes.PowerClean),
		slog.Int("reassembled", len(writes)-1))
	return profile, s.commit(ctx, writes...)
}

func started(w fivethreeone.Workout) bool {
	if w.Completed {
		return true
	}
	for _, e := range w.Exercises {
		for _, set := range e.Sets {
			if set.Completed {
				return true
			}
		}
	}
	return false
}

// Advance moves the athlete to the next week.
//
// After the deload week a new cycle starts with increased training maxes and its workouts are generated.
func (s *Service) Advance(ctx context.Context) (fivethreeone.Profile, error) {
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return fivethreeone.Profile{}, ErrNoProfile
	}
	writes := s.advanceLocked(ctx)
	profile := *s.profile
	return profile, s.commit(ctx, writes...)
}

// advanceLocked must hold mu and a profile must exist.
func (s *Service) advanceLocked(ctx context.Context) []write {
	next, newCycle := fivethreeone.Advance(s.profile.CurrentCycle)
	s.profile.CurrentCycle = next
	s.currentID = ""
	var writes []write
	kind := progressionWeek
	if newCycle {
		kind = progressionCycle
		s.profile.TrainingMaxes = fivethreeone.NextCycleTrainingMaxes(s.profile.TrainingMaxes)
		writes = s.addCycleWorkoutsLocked()
	}
	s.metrics.Progressions.WithLabelValues(kind).Inc()
	s.observeLocked()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "advanced",
		slog.String("kind", kind),
		slog.Int("cycle", next.Number),
		slog.Int("week", next.Week))
	return append([]write{saveProfile(*s.profile)}, writes...)
}

// completedIDsLocked must hold mu.
func (s *Service) completedIDsLocked() map[string]bool {
	completed := make(map[string]bool)
	for _, w := range s.workouts {
		if w.Completed {
			completed[w.ID] = true
		}
	}
	return completed
}

// weekDoneLocked reports whether every training day of the current week is completed. Must hold mu.
func (s *Service) weekDoneLocked() bool {
	_, pending := s.program.NextWorkout(*s.profile, s.completedIDsLocked())
	return !pending
}

// CompleteWorkout marks the workout as completed.
//
// Completing the last workout of the current week advances the athlete. Completing a workout twice is a no-op.
func (s *Service) CompleteWorkout(ctx context.Context, workoutID string) (fivethreeone.Workout, error) {
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return fivethreeone.Workout{}, ErrNoProfile
	}
	i, ok := s.index[workoutID]
	if !ok {
		s.mu.Unlock()
		return fivethreeone.Workout{}, fmt.Errorf("workout %s: %w", workoutID, ErrNotFound)
	}
	w := &s.workouts[i]
	if w.Completed {
		workout := w.Clone()
		s.mu.Unlock()
		return workout, nil
	}
	w.Completed = true
	workout := w.Clone()
	if s.currentID == workoutID {
		s.currentID = ""
	}
	s.metrics.WorkoutsCompleted.Inc()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "workout completed", slog.String("workout_id", workoutID))

	writes := []write{saveWorkout(workout)}
	if s.weekDoneLocked() {
		writes = append(writes, s.advanceLocked(ctx)...)
	}
	return workout, s.commit(ctx, writes...)
}

// locateSetLocked must hold mu.
func (s *Service) locateSetLocked(workoutID, exerciseID string, setIndex int) (*fivethreeone.Workout, *fivethreeone.Set, error) {
	i, ok := s.index[workoutID]
	if !ok {
		return nil, nil, fmt.Errorf("workout %s: %w", workoutID, ErrNotFound)
	}
	w := &s.workouts[i]
	e := w.ExerciseIndex(exerciseID)
	if e < 0 {
		return nil, nil, fmt.Errorf("exercise %s: %w", exerciseID, ErrNotFound)
	}
	sets := w.Exercises[e].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return nil, nil, fmt.Errorf("set %d of exercise %s: %w", setIndex, exerciseID, ErrNotFound)
	}
	return w, &sets[setIndex], nil
}

// ToggleSetCompletion flips the completion of the set at the zero-based setIndex.
func (s *Service) ToggleSetCompletion(
	ctx context.Context,
	workoutID, exerciseID string,
	setIndex int,
) (fivethreeone.Workout, error) {
	s.mu.Lock()
	w, set, err := s.locateSetLocked(workoutID, exerciseID, setIndex)
	if err != nil {
		s.mu.Unlock()
		return fivethreeone.Workout{}, err
	}
	set.Completed = !set.Completed
	workout := w.Clone()
	return workout, s.commit(ctx, saveWorkout(workout))
}

// RecordAMRAPResult stores the reps performed on an AMRAP set and marks the set as completed.
func (s *Service) RecordAMRAPResult(
	ctx context.Context,
	workoutID, exerciseID string,
	setIndex int,
	reps int,
) (fivethreeone.Workout, error) {
	if reps < 0 {
		return fivethreeone.Workout{}, fmt.Errorf("%w: reps %d", ErrInvalidInput, reps)
	}
	s.mu.Lock()
	w, set, err := s.locateSetLocked(workoutID, exerciseID, setIndex)
	if err != nil {
		s.mu.Unlock()
		return fivethreeone.Workout{}, err
	}
	if !set.AMRAP {
		s.mu.Unlock()
		return fivethreeone.Workout{}, ErrNotAMRAP
	}
	set.ActualReps = ptr.Ref(reps)
	set.Completed = true
	workout := w.Clone()
	s.metrics.AMRAPResults.Inc()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "AMRAP recorded",
		slog.String("workout_id", workoutID),
		slog.String("exercise_id", exerciseID),
		slog.Float64("weight", set.Weight),
		slog.Int("reps", reps))
	return workout, s.commit(ctx, saveWorkout(workout))
}

// CurrentWorkout returns the workout the athlete should do next.
//
// Asking twice returns the same workout until it is completed or the athlete advances. It returns
// ErrNoPendingWorkout when every workout of the current week is completed.
func (s *Service) CurrentWorkout(ctx context.Context) (fivethreeone.Workout, error) {
	s.mu.RLock()
	if i, ok := s.index[s.currentID]; ok && s.currentID != "" {
		w := s.workouts[i].Clone()
		s.mu.RUnlock()
		return w, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	w, writes, err := s.resolveNextLocked(false)
	if err != nil {
		s.mu.Unlock()
		return fivethreeone.Workout{}, err
	}
	return w, s.commit(ctx, writes...)
}

// GenerateNewWorkout reassembles the next pending workout from the current training maxes.
//
// Progress recorded on that workout is discarded.
func (s *Service) GenerateNewWorkout(ctx context.Context) (fivethreeone.Workout, error) {
	s.mu.Lock()
	w, writes, err := s.resolveNextLocked(true)
	if err != nil {
		s.mu.Unlock()
		return fivethreeone.Workout{}, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "workout regenerated", slog.String("workout_id", w.ID))
	return w, s.commit(ctx, writes...)
}

// resolveNextLocked finds the first pending workout of the current week and caches it as current.
//
// An existing record with the same id is reused unless fresh is set, in which case it is replaced in place.
// Must hold mu for writing.
func (s *Service) resolveNextLocked(fresh bool) (fivethreeone.Workout, []write, error) {
	if s.profile == nil {
		return fivethreeone.Workout{}, nil, ErrNoProfile
	}
	next, ok := s.program.NextWorkout(*s.profile, s.completedIDsLocked())
	if !ok {
		return fivethreeone.Workout{}, nil, ErrNoPendingWorkout
	}
	s.currentID = next.ID
	if i, exists := s.index[next.ID]; exists && !fresh {
		return s.workouts[i].Clone(), nil, nil
	}
	s.put(next)
	return next.Clone(), []write{saveWorkout(next)}, nil
}

// Workouts returns every workout in creation order.
func (s *Service) Workouts() []fivethreeone.Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workouts := make([]fivethreeone.Workout, 0, len(s.workouts))
	for _, w := range s.workouts {
		workouts = append(workouts, w.Clone())
	}
	return workouts
}

// Workout returns the workout with the id or ErrNotFound.
func (s *Service) Workout(id string) (fivethreeone.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return fivethreeone.Workout{}, fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	return s.workouts[i].Clone(), nil
}

// Progress summarizes the completed workouts.
func (s *Service) Progress() fivethreeone.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fivethreeone.Summarize(s.workouts)
}

// Reset forgets the athlete and every workout.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.profile = nil
	s.workouts = nil
	s.index = make(map[string]int)
	s.currentID = ""
	s.observeLocked()
	s.logger.LogAttrs(ctx, slog.LevelWarn, "training state reset")
	return s.commit(ctx, func(ctx context.Context, store Store) error {
		return errors.Wrap(store.ClearAll(ctx), "clear store")
	})
}
