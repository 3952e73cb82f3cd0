package mcp

import (
	"context"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
)

// DataSource abstracts the data layer for MCP tools.
type DataSource interface {
	QueryPlans(ctx context.Context, userID string, activeOnly bool) ([]models.WorkoutPlan, error)
	QuerySessions(ctx context.Context, userID string, status models.SessionStatus, limit int) ([]models.WorkoutSession, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
