package mcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/psl"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// dateRange validates optional YYYY-MM-DD bounds. A missing end defaults to
// today and a missing start to days before the end.
func (h *handlers) dateRange(startStr, endStr string, days int) (string, string, error) {
	end := civil.DateOf(h.now())
	if endStr != "" {
		d, err := calendar.ParseDate(endStr)
		if err != nil {
			return "", "", fmt.Errorf("invalid end date %q", endStr)
		}
		end = d
	}
	start := end.AddDays(-days)
	if startStr != "" {
		d, err := calendar.ParseDate(startStr)
		if err != nil {
			return "", "", fmt.Errorf("invalid start date %q", startStr)
		}
		start = d
	}
	return start.String(), end.String(), nil
}

func uuidArg(req mcp.CallToolRequest, key string) (uuid.UUID, error) {
	s, err := req.RequireString(key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s parameter is required", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID", key)
	}
	return id, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolCompilePSL = mcp.NewTool("compile_psl",
	mcp.WithDescription("Validate and compile a program document. Returns diagnostics with paths and line numbers, the compiled sessions, and for calendar programs the materialized dated sessions. Nothing is stored."),
	mcp.WithString("source", mcp.Required(), mcp.Description("Program document (YAML)")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List imported training programs."),
	mcp.WithBoolean("active_only", mcp.Description("Only return active programs. Defaults to false.")),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Get a program with its days, exercises, readable prescriptions and progression rules."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program UUID")),
)

var toolListPlanned = mcp.NewTool("list_planned_workouts",
	mcp.WithDescription("List the planned workouts of a program in a date range."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program UUID")),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to 14 days after start.")),
)

var toolApplyPlanned = mcp.NewTool("apply_planned_workout",
	mcp.WithDescription("Start a planned workout: creates the workout, its exercises and placeholder sets. Applying the same planned workout again returns the existing workout."),
	mcp.WithString("planned_workout_id", mcp.Required(), mcp.Description("Planned workout UUID")),
)

var toolSuggestNextLoad = mcp.NewTool("suggest_next_load",
	mcp.WithDescription("Suggest the next working weight for a program exercise from its progression rule and the last completed session."),
	mcp.WithString("program_exercise_id", mcp.Required(), mcp.Description("Program exercise UUID")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List logged workouts by day."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Working-set volume per exercise: sessions, sets, reps, tonnage and top weight. Warm-up sets are excluded."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

// --- Tool handlers ---

func (h *handlers) compilePSL(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source parameter is required"), nil
	}
	return jsonResult(psl.Compile(src))
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.ds.ListPrograms(ctx, req.GetBool("active_only", false))
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uuidArg(req, "program_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := h.ds.GetProgram(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(detail)
}

func (h *handlers) listPlanned(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uuidArg(req, "program_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start := civil.DateOf(h.now())
	if v := req.GetString("start", ""); v != "" {
		if start, err = calendar.ParseDate(v); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start date %q", v)), nil
		}
	}
	end := start.AddDays(14)
	if v := req.GetString("end", ""); v != "" {
		if end, err = calendar.ParseDate(v); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end date %q", v)), nil
		}
	}
	from, to := start.String(), end.String()
	planned, err := h.ds.ListPlanned(ctx, id, from, to)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(planned)
}

func (h *handlers) applyPlanned(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uuidArg(req, "planned_workout_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.ds.ApplyPlanned(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("apply failed: " + err.Error()), nil
	}
	h.log.Info("mcp: planned workout applied", "planned_workout_id", id, "already_applied", res.AlreadyApplied)
	return jsonResult(res)
}

func (h *handlers) suggestNextLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uuidArg(req, "program_exercise_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := h.ds.Suggest(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("suggestion failed: " + err.Error()), nil
	}
	return jsonResult(s)
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := h.dateRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	workouts, err := h.ds.ListWorkouts(ctx, from, to)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := h.dateRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := h.ds.TrainingSummary(ctx, from, to)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summary)
}
