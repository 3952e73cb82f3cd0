package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
)

// CreateSession inserts a workout session row.
func (db *DB) CreateSession(ctx context.Context, session models.WorkoutSession) error {
	doc, err := models.EncodeSessionDoc(session)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, plan_id, status, start_time, end_time, doc, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		session.ID, session.UserID, session.PlanID, session.Status,
		session.StartTime, session.EndTime, doc)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Cross-user access fails with
// ErrUnauthorized.
func (db *DB) GetSession(ctx context.Context, sessionID, userID string) (models.WorkoutSession, error) {
	var (
		ownerID string
		doc     []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, doc FROM workout_sessions WHERE id = $1`,
		sessionID).Scan(&ownerID, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WorkoutSession{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("querying session: %w", err)
	}
	if ownerID != userID {
		return models.WorkoutSession{}, fmt.Errorf("session %s: %w", sessionID, ErrUnauthorized)
	}

	return models.DecodeSessionDoc(sessionID, doc)
}

// UpdateSession rewrites a session the user owns. Status, times, and the
// document payload are all replaced; updated_at is server-assigned.
func (db *DB) UpdateSession(ctx context.Context, session models.WorkoutSession) error {
	doc, err := models.EncodeSessionDoc(session)
	if err != nil {
		return err
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET status = $1, start_time = $2, end_time = $3, doc = $4, updated_at = NOW()
		 WHERE id = $5 AND user_id = $6`,
		session.Status, session.StartTime, session.EndTime, doc,
		session.ID, session.UserID)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}
	return nil
}

// SaveSession upserts a session row, used by the sync reconciler where the
// session may or may not have reached the server before going offline.
func (db *DB) SaveSession(ctx context.Context, session models.WorkoutSession) error {
	doc, err := models.EncodeSessionDoc(session)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, plan_id, status, start_time, end_time, doc, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status, start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time, doc = EXCLUDED.doc, updated_at = NOW()
			WHERE workout_sessions.user_id = EXCLUDED.user_id`,
		session.ID, session.UserID, session.PlanID, session.Status,
		session.StartTime, session.EndTime, doc)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// QuerySessions retrieves a user's sessions, optionally filtered by status,
// most recent first. Completed sessions order by end time, others by start.
func (db *DB) QuerySessions(ctx context.Context, userID string, status models.SessionStatus, limit int) ([]models.WorkoutSession, error) {
	query := `SELECT id, doc FROM workout_sessions WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY COALESCE(end_time, start_time) DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.WorkoutSession{}
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		session, err := models.DecodeSessionDoc(id, doc)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// LastCompletedSession retrieves the most recent completed session for a
// plan, used to pre-populate the next session's suggested values. Returns
// ErrNotFound when the plan has never been completed.
func (db *DB) LastCompletedSession(ctx context.Context, userID, planID string) (models.WorkoutSession, error) {
	var (
		id  string
		doc []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, doc FROM workout_sessions
		 WHERE user_id = $1 AND plan_id = $2 AND status = 'completed'
		 ORDER BY end_time DESC LIMIT 1`,
		userID, planID).Scan(&id, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WorkoutSession{}, fmt.Errorf("no completed session for plan %s: %w", planID, ErrNotFound)
	}
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("querying last session: %w", err)
	}

	return models.DecodeSessionDoc(id, doc)
}

// DeleteSession removes a session the user owns.
func (db *DB) DeleteSession(ctx context.Context, sessionID, userID string) error {
	if _, err := db.GetSession(ctx, sessionID, userID); err != nil {
		return err
	}

	_, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
