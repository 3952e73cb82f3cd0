package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
)

// CreatePlan inserts a workout plan. Created/updated timestamps are
// server-assigned.
func (db *DB) CreatePlan(ctx context.Context, plan models.WorkoutPlan) error {
	doc, err := models.EncodePlanDoc(plan)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_plans (id, user_id, name, is_active, doc, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		plan.ID, plan.UserID, plan.Name, plan.IsActive, doc)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}

	db.plans.notify(plan.UserID, db.planSnapshot(plan.UserID))
	return nil
}

// GetPlan retrieves a plan by ID. Access by a different user fails with
// ErrUnauthorized rather than returning the row.
func (db *DB) GetPlan(ctx context.Context, planID, userID string) (models.WorkoutPlan, error) {
	var (
		ownerID string
		doc     []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, doc FROM workout_plans WHERE id = $1`,
		planID).Scan(&ownerID, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WorkoutPlan{}, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	if err != nil {
		return models.WorkoutPlan{}, fmt.Errorf("querying plan: %w", err)
	}
	if ownerID != userID {
		return models.WorkoutPlan{}, fmt.Errorf("plan %s: %w", planID, ErrUnauthorized)
	}

	return models.DecodePlanDoc(planID, doc)
}

// QueryPlans retrieves a user's plans, most recently updated first.
func (db *DB) QueryPlans(ctx context.Context, userID string, activeOnly bool) ([]models.WorkoutPlan, error) {
	query := `SELECT id, doc FROM workout_plans WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []models.WorkoutPlan{}
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plan, err := models.DecodePlanDoc(id, doc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdatePlan rewrites a plan the user owns. The updated_at timestamp is
// server-assigned.
func (db *DB) UpdatePlan(ctx context.Context, plan models.WorkoutPlan) error {
	if _, err := db.GetPlan(ctx, plan.ID, plan.UserID); err != nil {
		return err
	}

	doc, err := models.EncodePlanDoc(plan)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`UPDATE workout_plans SET name = $1, is_active = $2, doc = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5`,
		plan.Name, plan.IsActive, doc, plan.ID, plan.UserID)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}

	db.plans.notify(plan.UserID, db.planSnapshot(plan.UserID))
	return nil
}

// TogglePlanActive flips the plan's soft-deactivation flag.
func (db *DB) TogglePlanActive(ctx context.Context, planID, userID string) (models.WorkoutPlan, error) {
	plan, err := db.GetPlan(ctx, planID, userID)
	if err != nil {
		return models.WorkoutPlan{}, err
	}
	plan.IsActive = !plan.IsActive
	if err := db.UpdatePlan(ctx, plan); err != nil {
		return models.WorkoutPlan{}, err
	}
	return plan, nil
}

// DeletePlan hard-deletes a plan the user owns.
func (db *DB) DeletePlan(ctx context.Context, planID, userID string) error {
	if _, err := db.GetPlan(ctx, planID, userID); err != nil {
		return err
	}

	_, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}

	db.plans.notify(userID, db.planSnapshot(userID))
	return nil
}
