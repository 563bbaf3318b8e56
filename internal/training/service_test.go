package training_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/sqlite"
	"github.com/myrjola/wrestlestrong/internal/testhelpers"
	"github.com/myrjola/wrestlestrong/internal/training"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"
)

//nolint:gochecknoglobals // test fixture.
var testNow = time.Date(2025, 1, 6, 17, 30, 0, 0, time.UTC)

func testSetup() training.SetupInput {
	return training.SetupInput{
		Name:        "Jordan",
		WeightClass: "165",
		OneRepMaxes: fivethreeone.Lifts{
			Deadlift:   400,
			BenchPress: 200,
			Squat:      300,
			PowerClean: 150,
		},
	}
}

func testProgram() fivethreeone.Program {
	p := fivethreeone.DefaultProgram()
	p.Now = func() time.Time { return testNow }
	return p
}

type testService struct {
	*training.Service
	metrics *training.Metrics
}

func newService(t *testing.T, store training.Store) testService {
	t.Helper()
	metrics := training.NewMetrics(prometheus.NewRegistry())
	svc, err := training.NewService(t.Context(), training.Config{
		Store:   store,
		Logger:  testhelpers.NewLogger(testhelpers.NewWriter(t)),
		Program: testProgram(),
		Metrics: metrics,
		NewID:   func() string { return "athlete-1" },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return testService{Service: svc, metrics: metrics}
}

func newSQLiteStore(t *testing.T) *training.SQLiteStore {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return training.NewSQLiteStore(db, logger)
}

func setUp(t *testing.T, svc testService) fivethreeone.Profile {
	t.Helper()
	profile, err := svc.Setup(t.Context(), testSetup())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return profile
}

// memoryStore is a Store that can be told to fail its writes.
type memoryStore struct {
	mu       sync.Mutex
	profile  *fivethreeone.Profile
	workouts []fivethreeone.Workout
	failing  bool
}

var errDiskFull = errors.New("disk full")

func (m *memoryStore) setFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

func (m *memoryStore) LoadProfile(context.Context) (fivethreeone.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return fivethreeone.Profile{}, training.ErrNotFound
	}
	return *m.profile, nil
}

func (m *memoryStore) SaveProfile(_ context.Context, p fivethreeone.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errDiskFull
	}
	m.profile = &p
	return nil
}

func (m *memoryStore) LoadWorkouts(context.Context) ([]fivethreeone.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	workouts := make([]fivethreeone.Workout, 0, len(m.workouts))
	for _, w := range m.workouts {
		workouts = append(workouts, w.Clone())
	}
	return workouts, nil
}

func (m *memoryStore) SaveWorkout(_ context.Context, w fivethreeone.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errDiskFull
	}
	i := slices.IndexFunc(m.workouts, func(existing fivethreeone.Workout) bool { return existing.ID == w.ID })
	if i < 0 {
		m.workouts = append(m.workouts, w.Clone())
	} else {
		m.workouts[i] = w.Clone()
	}
	return nil
}

func (m *memoryStore) ClearAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errDiskFull
	}
	m.profile = nil
	m.workouts = nil
	return nil
}

// stallingStore holds workout saves until release is closed once stalling is on.
type stallingStore struct {
	*memoryStore
	stalling atomic.Bool
	saving   chan struct{}
	release  chan struct{}
}

func (s *stallingStore) SaveWorkout(ctx context.Context, w fivethreeone.Workout) error {
	if s.stalling.Load() {
		s.saving <- struct{}{}
		<-s.release
	}
	return s.memoryStore.SaveWorkout(ctx, w)
}

func mainLiftAMRAP(t *testing.T, w fivethreeone.Workout) (string, int) {
	t.Helper()
	main, ok := w.MainLift()
	if !ok {
		t.Fatalf("workout %s has no main lift", w.ID)
	}
	i := slices.IndexFunc(main.Sets, func(s fivethreeone.Set) bool { return s.AMRAP })
	if i < 0 {
		t.Fatalf("workout %s has no AMRAP set", w.ID)
	}
	return main.ID, i
}

func TestService_Setup(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))

	if _, err := svc.Profile(); !errors.Is(err, training.ErrNoProfile) {
		t.Fatalf("Profile before setup: got %v, want ErrNoProfile", err)
	}

	got := setUp(t, svc)
	want := fivethreeone.Profile{
		ID:          "athlete-1",
		Name:        "Jordan",
		WeightClass: "165",
		TrainingMaxes: fivethreeone.Lifts{
			Deadlift:   360,
			BenchPress: 180,
			Squat:      270,
			PowerClean: 135,
		},
		CurrentCycle: fivethreeone.Cycle{Number: 1, Week: 1},
		StartDate:    testNow,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}

	workouts := svc.Workouts()
	if len(workouts) != 16 {
		t.Fatalf("got %d workouts, want 16", len(workouts))
	}
	if got, want := workouts[0].ID, "workout-1-1-1"; got != want {
		t.Errorf("first workout %q, want %q", got, want)
	}
	if got, want := workouts[15].ID, "workout-1-4-4"; got != want {
		t.Errorf("last workout %q, want %q", got, want)
	}

	if _, err := svc.Setup(t.Context(), testSetup()); !errors.Is(err, training.ErrProfileExists) {
		t.Errorf("second Setup: got %v, want ErrProfileExists", err)
	}
}

func TestService_Setup_invalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input training.SetupInput
	}{
		{name: "blank name", input: training.SetupInput{Name: "  ", WeightClass: "", OneRepMaxes: testSetup().OneRepMaxes}},
		{name: "negative max", input: training.SetupInput{
			Name:        "Jordan",
			WeightClass: "",
			OneRepMaxes: fivethreeone.Lifts{Deadlift: -1, BenchPress: 0, Squat: 0, PowerClean: 0},
		}},
		{name: "zero max", input: training.SetupInput{
			Name:        "Jordan",
			WeightClass: "",
			OneRepMaxes: fivethreeone.Lifts{Deadlift: 400, BenchPress: 200, Squat: 300, PowerClean: 0},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, &memoryStore{})
			if _, err := svc.Setup(t.Context(), tt.input); !errors.Is(err, training.ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
			if _, err := svc.Profile(); !errors.Is(err, training.ErrNoProfile) {
				t.Errorf("profile created despite invalid input: %v", err)
			}
		})
	}
}

func TestService_CurrentWorkout(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()

	if _, err := svc.CurrentWorkout(ctx); !errors.Is(err, training.ErrNoProfile) {
		t.Fatalf("CurrentWorkout before setup: got %v, want ErrNoProfile", err)
	}
	setUp(t, svc)

	first, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := first.ID, "workout-1-1-1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	second, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("asking twice gave %q and %q", first.ID, second.ID)
	}
	if got := len(svc.Workouts()); got != 16 {
		t.Errorf("reconciliation duplicated workouts: got %d, want 16", got)
	}

	if _, err = svc.CompleteWorkout(ctx, first.ID); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	next, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := next.ID, "workout-1-1-2"; got != want {
		t.Errorf("after completing the first workout got %q, want %q", got, want)
	}
}

func TestService_CurrentWorkout_lazilyCreated(t *testing.T) {
	store := &memoryStore{}
	svc := newService(t, store)
	setUp(t, svc)

	// Simulate a store that lost the generated workouts.
	store.mu.Lock()
	store.workouts = nil
	store.mu.Unlock()
	svc = newService(t, store)

	if got := len(svc.Workouts()); got != 16 {
		t.Fatalf("loading should restore the cycle, got %d workouts", got)
	}
	w, err := svc.CurrentWorkout(t.Context())
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := w.ID, "workout-1-1-1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestService_CompleteWorkout_advancesWeek(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()
	setUp(t, svc)

	for day := 1; day <= 4; day++ {
		w, err := svc.CurrentWorkout(ctx)
		if err != nil {
			t.Fatalf("CurrentWorkout on day %d: %v", day, err)
		}
		if _, err = svc.CompleteWorkout(ctx, w.ID); err != nil {
			t.Fatalf("CompleteWorkout %s: %v", w.ID, err)
		}
	}

	profile, err := svc.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if diff := cmp.Diff(fivethreeone.Cycle{Number: 1, Week: 2}, profile.CurrentCycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(svc.metrics.WorkoutsCompleted); got != 4 {
		t.Errorf("workouts completed metric %v, want 4", got)
	}
	if got := testutil.ToFloat64(svc.metrics.Progressions.WithLabelValues("week")); got != 1 {
		t.Errorf("week progressions metric %v, want 1", got)
	}
	if got := testutil.ToFloat64(svc.metrics.CurrentWeek); got != 2 {
		t.Errorf("current week gauge %v, want 2", got)
	}

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := w.ID, "workout-1-2-1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestService_CompleteWorkout_errors(t *testing.T) {
	svc := newService(t, &memoryStore{})
	ctx := t.Context()

	if _, err := svc.CompleteWorkout(ctx, "workout-1-1-1"); !errors.Is(err, training.ErrNoProfile) {
		t.Errorf("before setup: got %v, want ErrNoProfile", err)
	}
	setUp(t, svc)
	if _, err := svc.CompleteWorkout(ctx, "workout-9-9-9"); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("unknown workout: got %v, want ErrNotFound", err)
	}

	if _, err := svc.CompleteWorkout(ctx, "workout-1-1-1"); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	w, err := svc.CompleteWorkout(ctx, "workout-1-1-1")
	if err != nil {
		t.Fatalf("completing twice: %v", err)
	}
	if !w.Completed {
		t.Error("workout not completed")
	}
	if got := testutil.ToFloat64(svc.metrics.WorkoutsCompleted); got != 1 {
		t.Errorf("completing twice counted %v times", got)
	}
}

func TestService_Advance(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()
	setUp(t, svc)

	var (
		profile fivethreeone.Profile
		err     error
	)
	for range 3 {
		if profile, err = svc.Advance(ctx); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if diff := cmp.Diff(fivethreeone.Cycle{Number: 1, Week: 4}, profile.CurrentCycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got, want := profile.TrainingMaxes.Squat, 270.0; got != want {
		t.Errorf("training max changed within the cycle: got %v, want %v", got, want)
	}

	if profile, err = svc.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	want := fivethreeone.Lifts{
		Deadlift:   370,
		BenchPress: 185,
		Squat:      280,
		PowerClean: 140,
	}
	if diff := cmp.Diff(want, profile.TrainingMaxes); diff != "" {
		t.Errorf("training maxes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fivethreeone.Cycle{Number: 2, Week: 1}, profile.CurrentCycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got := len(svc.Workouts()); got != 32 {
		t.Errorf("got %d workouts, want 32", got)
	}
	if got := testutil.ToFloat64(svc.metrics.Progressions.WithLabelValues("cycle")); got != 1 {
		t.Errorf("cycle progressions metric %v, want 1", got)
	}

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := w.ID, "workout-2-1-1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	main, _ := w.MainLift()
	// Week 1 top set is 85% of the new squat training max of 280.
	if got, want := main.Sets[len(main.Sets)-1].Weight, 240.0; got != want {
		t.Errorf("top set weight %v, want %v", got, want)
	}
}

func TestService_ToggleSetCompletion(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()
	setUp(t, svc)

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	exercise := w.Exercises[1]

	updated, err := svc.ToggleSetCompletion(ctx, w.ID, exercise.ID, 2)
	if err != nil {
		t.Fatalf("ToggleSetCompletion: %v", err)
	}
	if !updated.Exercises[1].Sets[2].Completed {
		t.Error("set not completed after first toggle")
	}
	if updated, err = svc.ToggleSetCompletion(ctx, w.ID, exercise.ID, 2); err != nil {
		t.Fatalf("ToggleSetCompletion: %v", err)
	}
	if updated.Exercises[1].Sets[2].Completed {
		t.Error("set still completed after second toggle")
	}

	tests := []struct {
		name       string
		workoutID  string
		exerciseID string
		setIndex   int
	}{
		{name: "unknown workout", workoutID: "nope", exerciseID: exercise.ID, setIndex: 0},
		{name: "unknown exercise", workoutID: w.ID, exerciseID: "nope", setIndex: 0},
		{name: "set out of range", workoutID: w.ID, exerciseID: exercise.ID, setIndex: len(exercise.Sets)},
		{name: "negative set", workoutID: w.ID, exerciseID: exercise.ID, setIndex: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ToggleSetCompletion(ctx, tt.workoutID, tt.exerciseID, tt.setIndex)
			if !errors.Is(err, training.ErrNotFound) {
				t.Errorf("got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestService_RecordAMRAPResult(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()
	setUp(t, svc)

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	exerciseID, setIndex := mainLiftAMRAP(t, w)

	if _, err = svc.RecordAMRAPResult(ctx, w.ID, exerciseID, 0, 5); !errors.Is(err, training.ErrNotAMRAP) {
		t.Errorf("warm-up set: got %v, want ErrNotAMRAP", err)
	}
	if _, err = svc.RecordAMRAPResult(ctx, w.ID, exerciseID, setIndex, -1); !errors.Is(err, training.ErrInvalidInput) {
		t.Errorf("negative reps: got %v, want ErrInvalidInput", err)
	}

	updated, err := svc.RecordAMRAPResult(ctx, w.ID, exerciseID, setIndex, 8)
	if err != nil {
		t.Fatalf("RecordAMRAPResult: %v", err)
	}
	set := updated.Exercises[0].Sets[setIndex]
	if set.ActualReps == nil || *set.ActualReps != 8 {
		t.Errorf("actual reps %v, want 8", set.ActualReps)
	}
	if !set.Completed {
		t.Error("AMRAP set not completed")
	}
	if got := testutil.ToFloat64(svc.metrics.AMRAPResults); got != 1 {
		t.Errorf("AMRAP metric %v, want 1", got)
	}

	if _, err = svc.CompleteWorkout(ctx, w.ID); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	progress := svc.Progress()
	latest, ok := progress.LatestAMRAP[fivethreeone.LiftSquat]
	if !ok {
		t.Fatal("no squat AMRAP in progress")
	}
	// 230 x 8 estimates round(230 * (1 + 8/30)) = 291.
	if got, want := latest.EstimatedOneRepMax, 291.0; got != want {
		t.Errorf("estimated 1RM %v, want %v", got, want)
	}
}

func TestService_GenerateNewWorkout(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()
	setUp(t, svc)

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if _, err = svc.ToggleSetCompletion(ctx, w.ID, w.Exercises[0].ID, 0); err != nil {
		t.Fatalf("ToggleSetCompletion: %v", err)
	}

	fresh, err := svc.GenerateNewWorkout(ctx)
	if err != nil {
		t.Fatalf("GenerateNewWorkout: %v", err)
	}
	if fresh.ID != w.ID {
		t.Errorf("regenerated workout id %q, want %q", fresh.ID, w.ID)
	}
	if fresh.Exercises[0].Sets[0].Completed {
		t.Error("regenerated workout kept the completed set")
	}
	if got := len(svc.Workouts()); got != 16 {
		t.Errorf("got %d workouts, want 16", got)
	}
	current, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if diff := cmp.Diff(fresh, current); diff != "" {
		t.Errorf("current workout mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CurrentWorkout_outOfOrder(t *testing.T) {
	svc := newService(t, &memoryStore{})
	ctx := t.Context()
	setUp(t, svc)

	for _, id := range []string{"workout-1-1-4", "workout-1-1-3", "workout-1-1-2"} {
		if _, err := svc.CompleteWorkout(ctx, id); err != nil {
			t.Fatalf("CompleteWorkout %s: %v", id, err)
		}
	}
	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := w.ID, "workout-1-1-1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestService_CurrentWorkout_noPendingWorkout(t *testing.T) {
	svc := newService(t, &memoryStore{})
	ctx := t.Context()
	setUp(t, svc)

	// Finishing next week ahead of time does not advance the current week.
	for day := 1; day <= 4; day++ {
		if _, err := svc.CompleteWorkout(ctx, fivethreeone.WorkoutID(1, 2, day)); err != nil {
			t.Fatalf("CompleteWorkout: %v", err)
		}
	}
	profile, err := svc.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := profile.CurrentCycle.Week; got != 2 {
		t.Fatalf("week %d, want 2", got)
	}
	if _, err = svc.CurrentWorkout(ctx); !errors.Is(err, training.ErrNoPendingWorkout) {
		t.Errorf("got %v, want ErrNoPendingWorkout", err)
	}
	if _, err = svc.GenerateNewWorkout(ctx); !errors.Is(err, training.ErrNoPendingWorkout) {
		t.Errorf("GenerateNewWorkout: got %v, want ErrNoPendingWorkout", err)
	}
}

func TestService_UpdateOneRepMaxes(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()
	setUp(t, svc)

	started, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if _, err = svc.ToggleSetCompletion(ctx, started.ID, started.Exercises[0].ID, 0); err != nil {
		t.Fatalf("ToggleSetCompletion: %v", err)
	}

	maxes := testSetup().OneRepMaxes
	maxes.Deadlift = 500
	maxes.Squat = 400
	profile, err := svc.UpdateOneRepMaxes(ctx, maxes)
	if err != nil {
		t.Fatalf("UpdateOneRepMaxes: %v", err)
	}
	if got, want := profile.TrainingMaxes.Squat, 360.0; got != want {
		t.Errorf("squat training max %v, want %v", got, want)
	}

	kept, err := svc.Workout(started.ID)
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	if diff := cmp.Diff(started.Exercises[0].Sets[1:], kept.Exercises[0].Sets[1:]); diff != "" {
		t.Errorf("started workout was reassembled (-want +got):\n%s", diff)
	}

	// The week 2 squat day has not been started and follows the new training max.
	reassembled, err := svc.Workout("workout-1-2-1")
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	main, _ := reassembled.MainLift()
	if got, want := main.Sets[len(main.Sets)-1].Weight, 325.0; got != want {
		t.Errorf("top set weight %v, want %v", got, want)
	}

	if _, err = svc.UpdateOneRepMaxes(ctx, fivethreeone.Lifts{
		Deadlift:   -5,
		BenchPress: 0,
		Squat:      0,
		PowerClean: 0,
	}); !errors.Is(err, training.ErrInvalidInput) {
		t.Errorf("negative max: got %v, want ErrInvalidInput", err)
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svc := newService(t, newSQLiteStore(t))
	ctx := t.Context()

	if _, err := svc.UpdateProfile(ctx, "Sam", ""); !errors.Is(err, training.ErrNoProfile) {
		t.Errorf("before setup: got %v, want ErrNoProfile", err)
	}
	setUp(t, svc)
	profile, err := svc.UpdateProfile(ctx, " Sam ", "174")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if profile.Name != "Sam" || profile.WeightClass != "174" {
		t.Errorf("got %q %q, want Sam 174", profile.Name, profile.WeightClass)
	}
	if _, err = svc.UpdateProfile(ctx, "", "174"); !errors.Is(err, training.ErrInvalidInput) {
		t.Errorf("blank name: got %v, want ErrInvalidInput", err)
	}
}

func TestService_reload(t *testing.T) {
	store := newSQLiteStore(t)
	svc := newService(t, store)
	ctx := t.Context()
	setUp(t, svc)

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	exerciseID, setIndex := mainLiftAMRAP(t, w)
	if _, err = svc.RecordAMRAPResult(ctx, w.ID, exerciseID, setIndex, 7); err != nil {
		t.Fatalf("RecordAMRAPResult: %v", err)
	}
	if _, err = svc.CompleteWorkout(ctx, w.ID); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	for range 4 {
		if _, err = svc.Advance(ctx); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	reloaded := newService(t, store)
	wantProfile, _ := svc.Profile()
	gotProfile, err := reloaded.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if diff := cmp.Diff(wantProfile, gotProfile); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(svc.Workouts(), reloaded.Workouts(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("workouts mismatch (-want +got):\n%s", diff)
	}
}

func TestService_persistenceFailure(t *testing.T) {
	store := &memoryStore{}
	svc := newService(t, store)
	ctx := t.Context()
	setUp(t, svc)

	store.setFailing(true)
	_, err := svc.CompleteWorkout(ctx, "workout-1-1-1")
	if !errors.Is(err, training.ErrPersistence) {
		t.Fatalf("got %v, want ErrPersistence", err)
	}
	if !errors.Is(err, errDiskFull) {
		t.Errorf("store error not wrapped: %v", err)
	}

	w, err := svc.Workout("workout-1-1-1")
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	if !w.Completed {
		t.Error("in-memory state should keep the completion")
	}
	if got := testutil.ToFloat64(svc.metrics.PersistenceFailures); got != 1 {
		t.Errorf("persistence failures metric %v, want 1", got)
	}

	store.setFailing(false)
	stored, err := store.LoadWorkouts(ctx)
	if err != nil {
		t.Fatalf("LoadWorkouts: %v", err)
	}
	if stored[0].Completed {
		t.Error("failed write reached the store")
	}
}

func TestService_Reset(t *testing.T) {
	store := newSQLiteStore(t)
	svc := newService(t, store)
	ctx := t.Context()
	setUp(t, svc)

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := svc.Profile(); !errors.Is(err, training.ErrNoProfile) {
		t.Errorf("Profile after reset: got %v, want ErrNoProfile", err)
	}
	if got := len(svc.Workouts()); got != 0 {
		t.Errorf("got %d workouts after reset", got)
	}

	reloaded := newService(t, store)
	if _, err := reloaded.Profile(); !errors.Is(err, training.ErrNoProfile) {
		t.Errorf("reloaded Profile after reset: got %v, want ErrNoProfile", err)
	}
	if got := len(reloaded.Workouts()); got != 0 {
		t.Errorf("got %d stored workouts after reset", got)
	}

	// A new athlete can be set up after a reset.
	setUp(t, svc)
}

func TestService_concurrentWrites(t *testing.T) {
	store := newSQLiteStore(t)
	svc := newService(t, store)
	ctx := t.Context()
	setUp(t, svc)

	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}

	var g errgroup.Group
	for _, e := range w.Exercises {
		for i := range e.Sets {
			g.Go(func() error {
				_, err := svc.ToggleSetCompletion(ctx, w.ID, e.ID, i)
				return err
			})
			g.Go(func() error {
				_, err := svc.CurrentWorkout(ctx)
				return err
			})
		}
	}
	if err = g.Wait(); err != nil {
		t.Fatalf("concurrent writes: %v", err)
	}

	got, err := svc.Workout(w.ID)
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	for _, e := range got.Exercises {
		for i, s := range e.Sets {
			if !s.Completed {
				t.Errorf("set %d of %s not completed", i, e.ID)
			}
		}
	}

	reloaded := newService(t, store)
	stored, err := reloaded.Workout(w.ID)
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	if diff := cmp.Diff(got, stored, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("store diverged from memory (-want +got):\n%s", diff)
	}
}

func TestService_readsDoNotWaitForStore(t *testing.T) {
	store := &stallingStore{
		memoryStore: &memoryStore{},
		saving:      make(chan struct{}, 2),
		release:     make(chan struct{}),
	}
	svc := newService(t, store)
	ctx := t.Context()
	setUp(t, svc)
	w, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	main, _ := w.MainLift()

	store.stalling.Store(true)
	release := sync.OnceFunc(func() { close(store.release) })
	defer release()

	var g errgroup.Group
	for i := range 2 {
		g.Go(func() error {
			_, toggleErr := svc.ToggleSetCompletion(ctx, w.ID, main.ID, i)
			return toggleErr
		})
	}
	<-store.saving

	// One toggle is stuck in the store and the other waits for its turn. Reads must still go through.
	done := make(chan error, 1)
	go func() {
		for {
			got, readErr := svc.Workout(w.ID)
			if readErr != nil {
				done <- readErr
				return
			}
			sets := got.Exercises[got.ExerciseIndex(main.ID)].Sets
			if sets[0].Completed && sets[1].Completed {
				break
			}
			time.Sleep(time.Millisecond)
		}
		if _, readErr := svc.Profile(); readErr != nil {
			done <- readErr
			return
		}
		svc.Progress()
		done <- nil
	}()
	select {
	case err = <-done:
		if err != nil {
			t.Fatalf("read while saving: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reads blocked while the store was saving")
	}

	release()
	if err = g.Wait(); err != nil {
		t.Fatalf("ToggleSetCompletion: %v", err)
	}
	stored, err := store.LoadWorkouts(ctx)
	if err != nil {
		t.Fatalf("LoadWorkouts: %v", err)
	}
	i := slices.IndexFunc(stored, func(s fivethreeone.Workout) bool { return s.ID == w.ID })
	if i < 0 {
		t.Fatalf("workout %s not stored", w.ID)
	}
	sets := stored[i].Exercises[stored[i].ExerciseIndex(main.ID)].Sets
	if !sets[0].Completed || !sets[1].Completed {
		t.Errorf("store lost a toggle: sets 0 and 1 completed = %v, %v", sets[0].Completed, sets[1].Completed)
	}
}

func TestService_CompleteWorkout_finishesCycle(t *testing.T) {
	store := newSQLiteStore(t)
	svc := newService(t, store)
	ctx := t.Context()
	setUp(t, svc)

	for range 16 {
		w, err := svc.CurrentWorkout(ctx)
		if err != nil {
			t.Fatalf("CurrentWorkout: %v", err)
		}
		if _, err = svc.CompleteWorkout(ctx, w.ID); err != nil {
			t.Fatalf("CompleteWorkout %s: %v", w.ID, err)
		}
	}

	profile, err := svc.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if diff := cmp.Diff(fivethreeone.Cycle{Number: 2, Week: 1}, profile.CurrentCycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got, want := profile.TrainingMaxes.Squat, 280.0; got != want {
		t.Errorf("squat training max %v, want %v", got, want)
	}
	if got, want := len(svc.Workouts()), 32; got != want {
		t.Errorf("got %d workouts, want %d", got, want)
	}

	next, err := svc.CurrentWorkout(ctx)
	if err != nil {
		t.Fatalf("CurrentWorkout: %v", err)
	}
	if got, want := next.ID, "workout-2-1-1"; got != want {
		t.Errorf("current workout %q, want %q", got, want)
	}
	main, _ := next.MainLift()
	if got, want := main.Sets[len(main.Sets)-1].Weight, 240.0; got != want {
		t.Errorf("top set weight %v, want %v", got, want)
	}

	reloaded := newService(t, store)
	if diff := cmp.Diff(svc.Workouts(), reloaded.Workouts(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("reloaded workouts differ (-want +got):\n%s", diff)
	}
}
