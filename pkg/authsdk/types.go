package authsdk

import "time"

// ============================================================================
// Requests
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register. Role is accepted for
// compatibility but the server always stores "user".
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// ============================================================================
// Resources
// ============================================================================

// LoginRecord is one entry of a user's login history.
type LoginRecord struct {
	IP         string    `json:"ip"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// User is the public view of an account. The password hash never leaves the
// server.
type User struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Role         string        `json:"role"`
	LoginHistory []LoginRecord `json:"loginHistory"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ============================================================================
// Responses
// ============================================================================

// MessageResponse is the envelope shared by every endpoint.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResponse carries the access token; the refresh token arrives as the
// refreshToken cookie.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    User   `json:"user"`
}

type ProfileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    User   `json:"data"`
}

type RefreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ErrorResponse is the failure envelope. RemainingAttempts is only present
// on login failures.
type ErrorResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RemainingAttempts *int   `json:"remainingAttempts,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports dependency status on /readyz. Cache is empty when no
// shared limiter is configured.
type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}
