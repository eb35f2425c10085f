package domain

import "time"

// MaxNameLength bounds User.Name in runes.
const MaxNameLength = 50

type User struct {
	ID           string
	Name         string
	Email        string // trimmed and lower-cased
	PasswordHash string // bcrypt encoded
	Role         Role
	LoginHistory []LoginRecord // oldest first
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
