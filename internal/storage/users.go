package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
)

// ErrEmailInUse means a registration attempted an already-registered email.
var ErrEmailInUse = errors.New("email already in use")

// CreateUser inserts a new user row with the given bcrypt hash.
func (db *DB) CreateUser(ctx context.Context, profile models.UserProfile, passwordHash []byte) error {
	prefs, err := json.Marshal(profile.Preferences)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, display_name, preferences, created_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (email) DO NOTHING`,
		profile.UID, profile.Email, passwordHash, profile.DisplayName, prefs)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmailInUse
	}
	return nil
}

// GetUserByEmail retrieves a profile and its password hash for login.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (models.UserProfile, []byte, error) {
	var (
		profile models.UserProfile
		hash    []byte
		prefs   []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, preferences, created_at, last_login_at
		 FROM users WHERE email = $1`, email).
		Scan(&profile.UID, &profile.Email, &hash, &profile.DisplayName, &prefs,
			&profile.CreatedAt, &profile.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserProfile{}, nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return models.UserProfile{}, nil, fmt.Errorf("querying user: %w", err)
	}
	if err := json.Unmarshal(prefs, &profile.Preferences); err != nil {
		return models.UserProfile{}, nil, fmt.Errorf("decoding preferences: %w", err)
	}
	return profile, hash, nil
}

// GetUserData retrieves a profile by UID, or ErrNotFound.
func (db *DB) GetUserData(ctx context.Context, uid string) (models.UserProfile, error) {
	var (
		profile models.UserProfile
		prefs   []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, display_name, preferences, created_at, last_login_at
		 FROM users WHERE id = $1`, uid).
		Scan(&profile.UID, &profile.Email, &profile.DisplayName, &prefs,
			&profile.CreatedAt, &profile.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserProfile{}, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("querying user: %w", err)
	}
	if err := json.Unmarshal(prefs, &profile.Preferences); err != nil {
		return models.UserProfile{}, fmt.Errorf("decoding preferences: %w", err)
	}
	return profile, nil
}

// UpdateUserPreferences replaces the user's stored preferences.
func (db *DB) UpdateUserPreferences(ctx context.Context, uid string, prefs models.UserPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE users SET preferences = $1 WHERE id = $2`, data, uid)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	return nil
}

// TouchLastLogin updates the user's last_login_at to NOW().
func (db *DB) TouchLastLogin(ctx context.Context, uid string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE users SET last_login_at = NOW() WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}
