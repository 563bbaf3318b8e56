package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/training"
)

// --- Tool definitions ---

var toolGetProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("Get the athlete profile: name, weight class, training maxes and the current cycle and week."),
)

var toolGetCurrentWorkout = mcp.NewTool("get_current_workout",
	mcp.WithDescription("Get the next workout to train with every prescribed set. "+
		"Set indexes are zero-based and are needed to record AMRAP reps."),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get a workout by id, for example workout-1-2-3 for cycle 1, week 2, day 3."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List workout summaries ordered by cycle, week and day. Filter by cycle and week."),
	mcp.WithNumber("cycle", mcp.Description("Only workouts of this cycle")),
	mcp.WithNumber("week", mcp.Description("Only workouts of this week (1-4)")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Get completed workout count, total volume and the AMRAP history with estimated one-rep "+
		"maxes per main lift."),
)

var toolCompleteWorkout = mcp.NewTool("complete_workout",
	mcp.WithDescription("Mark a workout completed. Completing the last workout of a week moves the athlete to "+
		"the next week, and the last week of a cycle raises the training maxes."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
)

var toolRecordAMRAP = mcp.NewTool("record_amrap",
	mcp.WithDescription("Record the reps of an AMRAP set (prescribed as 5+, 3+ or 1+). The set is marked completed."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout id")),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id within the workout")),
	mcp.WithNumber("set_index", mcp.Required(), mcp.Description("Zero-based index of the set within the exercise")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Reps performed, zero or more")),
)

// --- Tool handlers ---

// toolError turns a training error into a result the model can act on.
func (h *handlers) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, training.ErrNoProfile):
		return mcp.NewToolResultError("no athlete is set up yet, set one up in the web app first")
	case errors.Is(err, training.ErrNotFound),
		errors.Is(err, training.ErrNotAMRAP),
		errors.Is(err, training.ErrInvalidInput),
		errors.Is(err, training.ErrNoPendingWorkout):
		return mcp.NewToolResultError(err.Error())
	default:
		h.logger.LogAttrs(ctx, slog.LevelError, "mcp tool failed", slog.String("tool", tool),
			errors.SlogError(err))
		return mcp.NewToolResultError("internal error: " + err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) getProfile(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := h.trainer.Profile()
	if err != nil {
		return h.toolError(ctx, "get_profile", err), nil
	}
	return jsonResult(profile), nil
}

func (h *handlers) getCurrentWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, err := h.trainer.CurrentWorkout(ctx)
	if err != nil {
		return h.toolError(ctx, "get_current_workout", err), nil
	}
	return jsonResult(w), nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	w, err := h.trainer.Workout(id)
	if err != nil {
		return h.toolError(ctx, "get_workout", err), nil
	}
	return jsonResult(w), nil
}

type workoutSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Cycle          int    `json:"cycle"`
	Week           int    `json:"week"`
	Day            int    `json:"day"`
	Completed      bool   `json:"completed"`
	CompletedSets  int    `json:"completedSets"`
	PrescribedSets int    `json:"prescribedSets"`
}

func summarize(w fivethreeone.Workout) workoutSummary {
	s := workoutSummary{
		ID:             w.ID,
		Name:           w.Name,
		Cycle:          w.Cycle,
		Week:           w.Week,
		Day:            w.Day,
		Completed:      w.Completed,
		CompletedSets:  0,
		PrescribedSets: 0,
	}
	for _, e := range w.Exercises {
		for _, set := range e.Sets {
			s.PrescribedSets++
			if set.Completed {
				s.CompletedSets++
			}
		}
	}
	return s
}

func (h *handlers) listWorkouts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycle := req.GetInt("cycle", 0)
	week := req.GetInt("week", 0)
	if cycle < 0 || week < 0 || week > 4 {
		return mcp.NewToolResultError("cycle must be positive and week between 1 and 4"), nil
	}

	summaries := make([]workoutSummary, 0)
	for _, w := range h.trainer.Workouts() {
		if (cycle != 0 && w.Cycle != cycle) || (week != 0 && w.Week != week) {
			continue
		}
		summaries = append(summaries, summarize(w))
	}
	return jsonResult(summaries), nil
}

func (h *handlers) getProgress(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.trainer.Progress()), nil
}

func (h *handlers) completeWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	w, err := h.trainer.CompleteWorkout(ctx, id)
	if err != nil {
		return h.toolError(ctx, "complete_workout", err), nil
	}
	profile, err := h.trainer.Profile()
	if err != nil {
		return h.toolError(ctx, "complete_workout", err), nil
	}
	return jsonResult(map[string]any{
		"workout":      summarize(w),
		"currentCycle": profile.CurrentCycle,
	}), nil
}

func (h *handlers) recordAMRAP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workoutID, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	setIndex, err := req.RequireInt("set_index")
	if err != nil {
		return mcp.NewToolResultError("set_index parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}

	w, err := h.trainer.RecordAMRAPResult(ctx, workoutID, exerciseID, setIndex, reps)
	if err != nil {
		return h.toolError(ctx, "record_amrap", err), nil
	}
	set := w.Exercises[w.ExerciseIndex(exerciseID)].Sets[setIndex]
	return jsonResult(map[string]any{
		"workoutId":          w.ID,
		"exerciseId":         exerciseID,
		"weight":             set.Weight,
		"reps":               reps,
		"estimatedOneRepMax": fivethreeone.EstimatedOneRepMax(set.Weight, reps),
	}), nil
}
