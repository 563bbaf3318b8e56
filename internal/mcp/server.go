// Package mcp exposes the training program to MCP clients such as chat assistants.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
)

// Trainer is the part of training.Service the MCP surface uses.
type Trainer interface {
	Profile() (fivethreeone.Profile, error)
	CurrentWorkout(ctx context.Context) (fivethreeone.Workout, error)
	Workout(id string) (fivethreeone.Workout, error)
	Workouts() []fivethreeone.Workout
	Progress() fivethreeone.Progress
	CompleteWorkout(ctx context.Context, workoutID string) (fivethreeone.Workout, error)
	RecordAMRAPResult(
		ctx context.Context,
		workoutID, exerciseID string,
		setIndex, reps int,
	) (fivethreeone.Workout, error)
}

// New creates an MCP server with all tools and resources registered.
func New(trainer Trainer, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("WrestleStrong", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("WrestleStrong runs a 5/3/1 strength program for a single wrestler. "+
			"Read the athlete profile, today's workout and AMRAP progress, record AMRAP reps and complete workouts. "+
			"Weights are in pounds."),
	)

	h := &handlers{trainer: trainer, logger: logger}

	s.AddTools(
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
		server.ServerTool{Tool: toolGetCurrentWorkout, Handler: h.getCurrentWorkout},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolCompleteWorkout, Handler: h.completeWorkout},
		server.ServerTool{Tool: toolRecordAMRAP, Handler: h.recordAMRAP},
	)

	s.AddResources(
		server.ServerResource{Resource: resPercentageTable, Handler: h.percentageTable},
	)

	return s
}

type handlers struct {
	trainer Trainer
	logger  *slog.Logger
}

var resPercentageTable = mcp.NewResource(
	"wrestlestrong://percentage_table",
	"Percentage Table",
	mcp.WithResourceDescription("Working sets of every week of a 5/3/1 cycle as reps at a percentage of the training max"),
	mcp.WithMIMEType("application/json"),
)
