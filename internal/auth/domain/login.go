package domain

import "time"

// DefaultHistoryLimit is how many login records are kept per user.
const DefaultHistoryLimit = 50

// Location is a best-effort city/country for a network address.
type Location struct {
	City    string
	Country string
}

// LoginRecord is one append-only entry in a user's login history.
type LoginRecord struct {
	IP         string
	City       string
	Country    string
	LoggedInAt time.Time
}

// LoginEvent is published after a successful login.
type LoginEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	IP         string    `json:"ip"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	LoggedInAt time.Time `json:"logged_in_at"`
}
