package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("workoutlog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("workoutlog training server. Compile program documents, inspect programs and their planned workouts, start planned workouts, get load suggestions and review logged training volume."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolCompilePSL, Handler: h.compilePSL},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolListPlanned, Handler: h.listPlanned},
		server.ServerTool{Tool: toolApplyPlanned, Handler: h.applyPlanned},
		server.ServerTool{Tool: toolSuggestNextLoad, Handler: h.suggestNextLoad},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStats, Handler: h.stats},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resActivePrograms, Handler: h.activePrograms},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resStats = mcp.NewResource(
	"workoutlog://stats",
	"Data Stats",
	mcp.WithResourceDescription("Counts of programs, planned workouts, workouts and sets, and the logged date range"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"workoutlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resActivePrograms = mcp.NewResource(
	"workoutlog://active_programs",
	"Active Programs",
	mcp.WithResourceDescription("Programs currently generating planned workouts"),
	mcp.WithMIMEType("application/json"),
)
