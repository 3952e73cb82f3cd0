package models

import "time"

// UserProfile is the authenticated user's stored profile.
type UserProfile struct {
	UID         string          `json:"uid"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastLoginAt time.Time       `json:"lastLoginAt"`
}

// UserPreferences holds per-user settings synced across devices.
type UserPreferences struct {
	Theme      string `json:"theme"`
	WeightUnit string `json:"weightUnit"`
	RestTimer  bool   `json:"restTimer"`
}

// DefaultPreferences are applied at registration time.
func DefaultPreferences() UserPreferences {
	return UserPreferences{Theme: "dark", WeightUnit: "kg", RestTimer: true}
}
