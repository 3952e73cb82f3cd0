// Package auth implements registration, login, bearer-token sessions, and
// auth-state change notifications over the user store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
)

const minPasswordLen = 6

// Store is the user persistence needed by the service. Satisfied by
// *storage.DB.
type Store interface {
	CreateUser(ctx context.Context, profile models.UserProfile, passwordHash []byte) error
	GetUserByEmail(ctx context.Context, email string) (models.UserProfile, []byte, error)
	GetUserData(ctx context.Context, uid string) (models.UserProfile, error)
	UpdateUserPreferences(ctx context.Context, uid string, prefs models.UserPreferences) error
	TouchLastLogin(ctx context.Context, uid string) error
}

// StateListener receives the signed-in profile on login/registration and
// nil on logout.
type StateListener func(user *models.UserProfile)

type tokenEntry struct {
	uid     string
	expires time.Time
}

// Service issues opaque bearer tokens and tracks auth-state listeners.
// It is constructed once at process start and shared by reference.
type Service struct {
	store      Store
	log        *slog.Logger
	tokenTTL   time.Duration
	bcryptCost int

	mu           sync.Mutex
	tokens       map[string]tokenEntry
	listeners    map[int]StateListener
	nextListener int
}

// New creates an auth service. tokenTTL bounds how long a login stays valid.
func New(store Store, tokenTTL time.Duration, bcryptCost int, log *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      store,
		log:        log,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
		tokens:     make(map[string]tokenEntry),
		listeners:  make(map[int]StateListener),
	}
}

// Register creates a user with default preferences and signs them in.
// Returns the profile and a bearer token.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (models.UserProfile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return models.UserProfile{}, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return models.UserProfile{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.UserProfile{}, "", fmt.Errorf("hashing password: %w", err)
	}

	profile := models.UserProfile{
		UID:         uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Preferences: models.DefaultPreferences(),
		CreatedAt:   time.Now().UTC(),
		LastLoginAt: time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, profile, hash); err != nil {
		if errors.Is(err, storage.ErrEmailInUse) {
			return models.UserProfile{}, "", ErrEmailInUse
		}
		return models.UserProfile{}, "", fmt.Errorf("creating user: %w", err)
	}

	token := s.issueToken(profile.UID)
	s.notify(&profile)
	s.log.Info("user registered", "uid", profile.UID)

	return profile, token, nil
}

// Login verifies credentials and returns the profile and a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (models.UserProfile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, hash, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.UserProfile{}, "", ErrUserNotFound
		}
		return models.UserProfile{}, "", fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return models.UserProfile{}, "", ErrWrongPassword
	}

	if err := s.store.TouchLastLogin(ctx, profile.UID); err != nil {
		s.log.Warn("failed to update last login", "uid", profile.UID, "error", err)
	}
	profile.LastLoginAt = time.Now().UTC()

	token := s.issueToken(profile.UID)
	s.notify(&profile)
	s.log.Info("user logged in", "uid", profile.UID)

	return profile, token, nil
}

// Logout revokes a token and notifies listeners with nil.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	s.notify(nil)
}

// Authenticate resolves a bearer token to a user ID.
func (s *Service) Authenticate(token string) (string, error) {
	s.mu.Lock()
	entry, ok := s.tokens[token]
	if ok && time.Now().After(entry.expires) {
		delete(s.tokens, token)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return "", ErrInvalidToken
	}
	return entry.uid, nil
}

// GetUserData fetches a profile by UID, or nil when absent.
func (s *Service) GetUserData(ctx context.Context, uid string) (*models.UserProfile, error) {
	profile, err := s.store.GetUserData(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateUserPreferences replaces the user's stored preferences.
func (s *Service) UpdateUserPreferences(ctx context.Context, uid string, prefs models.UserPreferences) error {
	return s.store.UpdateUserPreferences(ctx, uid, prefs)
}

// OnAuthStateChange registers a listener delivered the current user on
// every auth transition. Returns an explicit unsubscribe handle.
func (s *Service) OnAuthStateChange(fn StateListener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) issueToken(uid string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = tokenEntry{uid: uid, expires: time.Now().Add(s.tokenTTL)}
	s.mu.Unlock()
	return token
}

func (s *Service) notify(user *models.UserProfile) {
	s.mu.Lock()
	listeners := make([]StateListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}
