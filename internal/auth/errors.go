package auth

import "errors"

// Provider error codes surfaced to the UI. Each maps to a fixed
// human-readable message via Message.
var (
	ErrWrongPassword  = errors.New("auth/wrong-password")
	ErrUserNotFound   = errors.New("auth/user-not-found")
	ErrEmailInUse     = errors.New("auth/email-already-in-use")
	ErrWeakPassword   = errors.New("auth/weak-password")
	ErrInvalidEmail   = errors.New("auth/invalid-email")
	ErrInvalidToken   = errors.New("auth/invalid-token")
	ErrNetworkFailure = errors.New("auth/network-request-failed")
)

// Message translates a provider error into a user-facing string.
// Unknown errors get a generic message so internals never leak to the UI.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password. Please try again."
	case errors.Is(err, ErrUserNotFound):
		return "No account found with this email address."
	case errors.Is(err, ErrEmailInUse):
		return "An account with this email already exists."
	case errors.Is(err, ErrWeakPassword):
		return "Password must be at least 6 characters long."
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrInvalidToken):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrNetworkFailure):
		return "Network error. Please check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
