package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
)

// windowDays parses the days parameter, defaulting to 30.
func windowDays(req mcp.CallToolRequest) int {
	days := req.GetInt("days", 30)
	if days < 1 {
		days = 30
	}
	return days
}

// --- Tool definitions ---

var toolGetPlans = mcp.NewTool("get_plans",
	mcp.WithDescription("List the user's workout plans including exercise names, target sets/reps/weights, and active status."),
	mcp.WithBoolean("active_only", mcp.Description("Only return plans marked active. Defaults to false.")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query workout session history, most recent first. Completed sessions include volume, completion rate, and duration metrics."),
	mcp.WithString("status", mcp.Description("Filter by session status"), mcp.Enum("active", "paused", "completed")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 20.")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Per-exercise personal records across all completed sessions: max weight, max reps, and max single-set volume, each with the date it was achieved."),
)

var toolGetWorkoutFrequency = mcp.NewTool("get_workout_frequency",
	mcp.WithDescription("Workout frequency over a recent window: total workouts, averages per week and month, and current/longest day streaks."),
	mcp.WithNumber("days", mcp.Description("Window size in days. Defaults to 30.")),
)

var toolGetConsistency = mcp.NewTool("get_consistency",
	mcp.WithDescription("Training consistency analysis: average gap between workouts, most and least active weekdays, and a 0-100 consistency score."),
	mcp.WithNumber("days", mcp.Description("Window size in days. Defaults to 30.")),
)

var toolGetVolumeTrends = mcp.NewTool("get_volume_trends",
	mcp.WithDescription("Per-session training volume (weight x reps, skipped exercises excluded) in chronological order, suitable for charting."),
)

var toolGetProgressSummary = mcp.NewTool("get_progress_summary",
	mcp.WithDescription("Combined progress snapshot over a recent window: session count, total volume, frequency, consistency, and record count."),
	mcp.WithNumber("days", mcp.Description("Window size in days. Defaults to 30.")),
)

// --- Tool handlers ---

func (h *handlers) getPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	activeOnly := req.GetBool("active_only", false)

	plans, err := h.ds.QueryPlans(ctx, uid, activeOnly)
	if err != nil {
		h.log.Error("mcp get_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	status := models.SessionStatus(req.GetString("status", ""))
	if status != "" && !status.Valid() {
		return mcp.NewToolResultError("invalid status filter"), nil
	}
	limit := req.GetInt("limit", 20)

	sessions, err := h.ds.QuerySessions(ctx, uid, status, limit)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) completedHistory(ctx context.Context) ([]models.WorkoutSession, error) {
	return h.ds.QuerySessions(ctx, UserIDFromContext(ctx), models.StatusCompleted, 0)
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.completedHistory(ctx)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(progress.CalculatePersonalRecords(sessions))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutFrequency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.completedHistory(ctx)
	if err != nil {
		h.log.Error("mcp get_workout_frequency", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	stats := progress.CalculateWorkoutFrequency(sessions, windowDays(req), time.Now())
	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getConsistency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.completedHistory(ctx)
	if err != nil {
		h.log.Error("mcp get_consistency", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	stats := progress.CalculateConsistencyMetrics(sessions, windowDays(req), time.Now())
	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getVolumeTrends(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.completedHistory(ctx)
	if err != nil {
		h.log.Error("mcp get_volume_trends", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(progress.CalculateVolumeTrends(sessions))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.completedHistory(ctx)
	if err != nil {
		h.log.Error("mcp get_progress_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	summary := progress.Summarize(sessions, windowDays(req), time.Now())
	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
