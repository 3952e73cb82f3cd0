// Package offline provides the durable local store used while the backing
// database is unreachable: the in-progress session snapshot, the pending
// write queues, and the plan cache. Values are JSON under fixed string keys;
// absent or corrupt entries read back as empty defaults rather than errors.
package offline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/meltforce/gymtrack/internal/models"
)

// Fixed storage keys, suffixed per user.
const (
	keyActiveSession   = "activeWorkoutSession"
	keyPendingSessions = "pendingWorkoutSessions"
	keySyncQueue       = "syncQueue"
	keyCachedPlans     = "cachedWorkoutPlans"
)

// PlanCacheMaxAge is the freshness cutoff for cached plans.
const PlanCacheMaxAge = 24 * time.Hour

// PendingSession is a workout-session write captured while disconnected.
type PendingSession struct {
	Session      models.WorkoutSession `json:"session"`
	PendingSince time.Time             `json:"pendingSince"`
	SyncAttempts int                   `json:"syncAttempts"`
	LastAttempt  *time.Time            `json:"lastAttempt,omitempty"`
}

// QueuedOperation is a generic typed operation awaiting replay.
type QueuedOperation struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Attempts  int             `json:"attempts"`
}

// ActiveSnapshot is the locally saved in-progress session.
type ActiveSnapshot struct {
	Session models.WorkoutSession `json:"session"`
	SavedAt time.Time             `json:"savedAt"`
}

type planCache struct {
	Plans    []models.WorkoutPlan `json:"plans"`
	CachedAt time.Time            `json:"cachedAt"`
}

// Info summarizes the store contents, for the offline-status endpoint.
type Info struct {
	HasActiveSession bool `json:"hasActiveSession"`
	PendingCount     int  `json:"pendingCount"`
	SyncQueueCount   int  `json:"syncQueueCount"`
	CachedPlansCount int  `json:"cachedPlansCount"`
}

// Store is a SQLite-backed key-value store at dir/offline.db. Every
// read-modify-write sequence runs synchronously under one mutex so
// concurrent callers cannot lose updates.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
}

// Open creates (or opens) the offline store under dir.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating offline dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "offline.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening offline db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(key, userID string) string {
	return key + "/" + userID
}

// getJSON reads and decodes a key into dest. Missing or corrupt entries
// leave dest untouched and return false.
func (s *Store) getJSON(key string, dest any) bool {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.log.Warn("offline store read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		s.log.Warn("offline store entry corrupt, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// SaveActiveSession stores the in-progress session snapshot.
func (s *Store) SaveActiveSession(userID string, session models.WorkoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setJSON(userKey(keyActiveSession, userID), ActiveSnapshot{
		Session: session,
		SavedAt: time.Now().UTC(),
	})
}

// ActiveSession returns the saved snapshot, or nil when absent or corrupt.
func (s *Store) ActiveSession(userID string) *ActiveSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snap ActiveSnapshot
	if !s.getJSON(userKey(keyActiveSession, userID), &snap) {
		return nil
	}
	return &snap
}

// ClearActiveSession removes the snapshot.
func (s *Store) ClearActiveSession(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(userKey(keyActiveSession, userID))
}

// AddPendingSession appends a session write to the pending queue with a
// zeroed attempt counter.
func (s *Store) AddPendingSession(userID string, session models.WorkoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingLocked(userID)
	pending = append(pending, PendingSession{
		Session:      session,
		PendingSince: time.Now().UTC(),
	})
	return s.setJSON(userKey(keyPendingSessions, userID), pending)
}

// PendingSessions lists queued session writes, oldest first.
func (s *Store) PendingSessions(userID string) []PendingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked(userID)
}

func (s *Store) pendingLocked(userID string) []PendingSession {
	pending := []PendingSession{}
	s.getJSON(userKey(keyPendingSessions, userID), &pending)
	return pending
}

// RemovePendingSession drops the queue entry for a synced session.
func (s *Store) RemovePendingSession(userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingLocked(userID)
	kept := pending[:0]
	for _, p := range pending {
		if p.Session.ID != sessionID {
			kept = append(kept, p)
		}
	}
	return s.setJSON(userKey(keyPendingSessions, userID), kept)
}

// IncrementSyncAttempt bumps the attempt counter for a failed entry and
// returns the new count.
func (s *Store) IncrementSyncAttempt(userID, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingLocked(userID)
	attempts := 0
	now := time.Now().UTC()
	for i := range pending {
		if pending[i].Session.ID == sessionID {
			pending[i].SyncAttempts++
			pending[i].LastAttempt = &now
			attempts = pending[i].SyncAttempts
		}
	}
	return attempts, s.setJSON(userKey(keyPendingSessions, userID), pending)
}

// Enqueue appends a generic typed operation to the sync queue.
func (s *Store) Enqueue(userID, opType string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s operation: %w", opType, err)
	}

	queue := s.queueLocked(userID)
	queue = append(queue, QueuedOperation{
		ID:        fmt.Sprintf("%s_%d", opType, time.Now().UnixNano()),
		Type:      opType,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	})
	return s.setJSON(userKey(keySyncQueue, userID), queue)
}

// SyncQueue lists queued generic operations, oldest first.
func (s *Store) SyncQueue(userID string) []QueuedOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueLocked(userID)
}

func (s *Store) queueLocked(userID string) []QueuedOperation {
	queue := []QueuedOperation{}
	s.getJSON(userKey(keySyncQueue, userID), &queue)
	return queue
}

// RemoveFromSyncQueue drops a replayed operation.
func (s *Store) RemoveFromSyncQueue(userID, opID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queueLocked(userID)
	kept := queue[:0]
	for _, op := range queue {
		if op.ID != opID {
			kept = append(kept, op)
		}
	}
	return s.setJSON(userKey(keySyncQueue, userID), kept)
}

// IncrementQueueAttempt bumps the attempt counter for a failed operation
// and returns the new count.
func (s *Store) IncrementQueueAttempt(userID, opID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queueLocked(userID)
	attempts := 0
	for i := range queue {
		if queue[i].ID == opID {
			queue[i].Attempts++
			attempts = queue[i].Attempts
		}
	}
	return attempts, s.setJSON(userKey(keySyncQueue, userID), queue)
}

// CachePlans stores the user's plan list with the current time.
func (s *Store) CachePlans(userID string, plans []models.WorkoutPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setJSON(userKey(keyCachedPlans, userID), planCache{
		Plans:    plans,
		CachedAt: time.Now().UTC(),
	})
}

// CachedPlans returns cached plans newer than PlanCacheMaxAge, or nil.
func (s *Store) CachedPlans(userID string) []models.WorkoutPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cache planCache
	if !s.getJSON(userKey(keyCachedPlans, userID), &cache) {
		return nil
	}
	if time.Since(cache.CachedAt) > PlanCacheMaxAge {
		return nil
	}
	return cache.Plans
}

// StorageInfo reports what the store currently holds for a user.
func (s *Store) StorageInfo(userID string) Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap ActiveSnapshot
	info := Info{
		HasActiveSession: s.getJSON(userKey(keyActiveSession, userID), &snap),
		PendingCount:     len(s.pendingLocked(userID)),
		SyncQueueCount:   len(s.queueLocked(userID)),
	}
	var cache planCache
	if s.getJSON(userKey(keyCachedPlans, userID), &cache) && time.Since(cache.CachedAt) <= PlanCacheMaxAge {
		info.CachedPlansCount = len(cache.Plans)
	}
	return info
}
