package training

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/ptr"
	"github.com/myrjola/wrestlestrong/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// SQLiteStore keeps the training state in the relational schema of the sqlite package.
type SQLiteStore struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewSQLiteStore(db *sqlite.Database, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

func (s *SQLiteStore) LoadProfile(ctx context.Context) (fivethreeone.Profile, error) {
	var (
		p         fivethreeone.Profile
		startDate string
	)
	err := s.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, weight_class, deadlift_tm, bench_press_tm, squat_tm, power_clean_tm,
		       cycle_number, cycle_week, start_date
		FROM athlete_profiles`).Scan(
		&p.ID,
		&p.Name,
		&p.WeightClass,
		&p.TrainingMaxes.Deadlift,
		&p.TrainingMaxes.BenchPress,
		&p.TrainingMaxes.Squat,
		&p.TrainingMaxes.PowerClean,
		&p.CurrentCycle.Number,
		&p.CurrentCycle.Week,
		&startDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fivethreeone.Profile{}, ErrNotFound
	}
	if err != nil {
		return fivethreeone.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	if p.StartDate, err = parseTimestamp(startDate); err != nil {
		return fivethreeone.Profile{}, err
	}
	return p, nil
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, p fivethreeone.Profile) error {
	_, err := s.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO athlete_profiles (
			id, name, weight_class, deadlift_tm, bench_press_tm, squat_tm, power_clean_tm,
			cycle_number, cycle_week, start_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (singleton) DO UPDATE SET
			id = excluded.id,
			name = excluded.name,
			weight_class = excluded.weight_class,
			deadlift_tm = excluded.deadlift_tm,
			bench_press_tm = excluded.bench_press_tm,
			squat_tm = excluded.squat_tm,
			power_clean_tm = excluded.power_clean_tm,
			cycle_number = excluded.cycle_number,
			cycle_week = excluded.cycle_week,
			start_date = excluded.start_date`,
		p.ID,
		p.Name,
		p.WeightClass,
		p.TrainingMaxes.Deadlift,
		p.TrainingMaxes.BenchPress,
		p.TrainingMaxes.Squat,
		p.TrainingMaxes.PowerClean,
		p.CurrentCycle.Number,
		p.CurrentCycle.Week,
		formatTimestamp(p.StartDate),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// SaveWorkout deletes and reinserts the workout in one transaction. A replaced workout keeps its position.
func (s *SQLiteStore) SaveWorkout(ctx context.Context, w fivethreeone.Workout) (err error) {
	tx, err := s.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	var position int
	err = tx.QueryRowContext(ctx, `SELECT position FROM workouts WHERE id = ?`, w.ID).Scan(&position)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM workouts`).Scan(&position); err != nil {
			return fmt.Errorf("next workout position: %w", err)
		}
	case err != nil:
		return fmt.Errorf("query workout position: %w", err)
	}

	// Exercises and sets go with the workout through ON DELETE CASCADE.
	if _, err = tx.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, w.ID); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO workouts (id, position, day, name, workout_date, cycle_number, week, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, position, w.Day, w.Name, formatTimestamp(w.Date), w.Cycle, w.Week, w.Completed); err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}

	for ei, e := range w.Exercises {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO workout_exercises (workout_id, position, id, name, lift, role)
			VALUES (?, ?, ?, ?, ?, ?)`,
			w.ID, ei, e.ID, e.Name, string(e.Lift), string(e.Role)); err != nil {
			return fmt.Errorf("insert exercise %s: %w", e.ID, err)
		}
		for si, set := range e.Sets {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO workout_sets (
					workout_id, exercise_position, position, set_number, kind, reps, weight, percentage,
					completed, amrap, actual_reps, is_bodyweight
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				w.ID, ei, si, set.Number, string(set.Kind), set.Reps.String(), set.Weight, set.Percentage,
				set.Completed, set.AMRAP, set.ActualReps, set.IsBodyweight); err != nil {
				return fmt.Errorf("insert set %d of %s: %w", si, e.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadWorkouts(ctx context.Context) (_ []fivethreeone.Workout, err error) {
	tx, err := s.db.ReadOnly.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	workouts, index, err := s.loadWorkoutRows(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err = s.loadExerciseRows(ctx, tx, workouts, index); err != nil {
		return nil, err
	}
	if err = s.loadSetRows(ctx, tx, workouts, index); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (s *SQLiteStore) loadWorkoutRows(
	ctx context.Context,
	tx *sql.Tx,
) (_ []fivethreeone.Workout, _ map[string]int, err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, day, name, workout_date, cycle_number, week, completed
		FROM workouts
		ORDER BY position`)
	if err != nil {
		return nil, nil, fmt.Errorf("query workouts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var workouts []fivethreeone.Workout
	index := make(map[string]int)
	for rows.Next() {
		var (
			w    fivethreeone.Workout
			date string
		)
		if err = rows.Scan(&w.ID, &w.Day, &w.Name, &date, &w.Cycle, &w.Week, &w.Completed); err != nil {
			return nil, nil, fmt.Errorf("scan workout: %w", err)
		}
		if w.Date, err = parseTimestamp(date); err != nil {
			return nil, nil, err
		}
		w.Exercises = []fivethreeone.Exercise{}
		index[w.ID] = len(workouts)
		workouts = append(workouts, w)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate workouts: %w", err)
	}
	return workouts, index, nil
}

func (s *SQLiteStore) loadExerciseRows(
	ctx context.Context,
	tx *sql.Tx,
	workouts []fivethreeone.Workout,
	index map[string]int,
) (err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT workout_id, id, name, lift, role
		FROM workout_exercises
		ORDER BY workout_id, position`)
	if err != nil {
		return fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	for rows.Next() {
		var (
			workoutID string
			e         fivethreeone.Exercise
			lift      string
			role      string
		)
		if err = rows.Scan(&workoutID, &e.ID, &e.Name, &lift, &role); err != nil {
			return fmt.Errorf("scan exercise: %w", err)
		}
		e.Lift = fivethreeone.LiftType(lift)
		e.Role = fivethreeone.Role(role)
		e.Sets = []fivethreeone.Set{}
		i, ok := index[workoutID]
		if !ok {
			continue
		}
		workouts[i].Exercises = append(workouts[i].Exercises, e)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate exercises: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadSetRows(
	ctx context.Context,
	tx *sql.Tx,
	workouts []fivethreeone.Workout,
	index map[string]int,
) (err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT workout_id, exercise_position, set_number, kind, reps, weight, percentage,
		       completed, amrap, actual_reps, is_bodyweight
		FROM workout_sets
		ORDER BY workout_id, exercise_position, position`)
	if err != nil {
		return fmt.Errorf("query sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	for rows.Next() {
		var (
			workoutID   string
			exerciseIdx int
			set         fivethreeone.Set
			kind        string
			reps        string
			percentage  sql.NullFloat64
			actualReps  sql.NullInt64
		)
		if err = rows.Scan(&workoutID, &exerciseIdx, &set.Number, &kind, &reps, &set.Weight, &percentage,
			&set.Completed, &set.AMRAP, &actualReps, &set.IsBodyweight); err != nil {
			return fmt.Errorf("scan set: %w", err)
		}
		set.Kind = fivethreeone.SetKind(kind)
		if set.Reps, err = fivethreeone.ParseReps(reps); err != nil {
			return fmt.Errorf("set of %s: %w", workoutID, err)
		}
		if percentage.Valid {
			set.Percentage = ptr.Ref(percentage.Float64)
		}
		if actualReps.Valid {
			set.ActualReps = ptr.Ref(int(actualReps.Int64))
		}
		i, ok := index[workoutID]
		if !ok || exerciseIdx >= len(workouts[i].Exercises) {
			continue
		}
		workouts[i].Exercises[exerciseIdx].Sets = append(workouts[i].Exercises[exerciseIdx].Sets, set)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate sets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) (err error) {
	tx, err := s.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()
	for _, table := range []string{"workouts", "athlete_profiles"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec // constant table names
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "cleared training data")
	return nil
}
