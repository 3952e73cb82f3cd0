package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymTrack workout data server. Query workout plans, session history, personal records, and training analytics. All data is scoped to the configured user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetPlans, Handler: h.getPlans},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetWorkoutFrequency, Handler: h.getWorkoutFrequency},
		server.ServerTool{Tool: toolGetConsistency, Handler: h.getConsistency},
		server.ServerTool{Tool: toolGetVolumeTrends, Handler: h.getVolumeTrends},
		server.ServerTool{Tool: toolGetProgressSummary, Handler: h.getProgressSummary},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resActivePlans, Handler: h.activePlans},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"gymtrack://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Completed workout sessions from the last 30 days with per-session metrics"),
	mcp.WithMIMEType("application/json"),
)

var resActivePlans = mcp.NewResource(
	"gymtrack://active_plans",
	"Active Plans",
	mcp.WithResourceDescription("The user's currently active workout plans with their exercise lists"),
	mcp.WithMIMEType("application/json"),
)
