package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a Tx can hand out the same repos bound to the
// transaction.
type Store interface {
	Users() Users
	LoginHistory() LoginHistory

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user with its login history.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by the normalised (lower-case) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. A duplicate email is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// Touch bumps updated_at. ErrNotFound when the user is gone.
	Touch(ctx context.Context, userID string) error
}

type LoginHistory interface {
	// AppendLoginRecord adds rec and then keeps only the newest limit
	// records for the user. Run it inside a Tx so both steps land together.
	AppendLoginRecord(ctx context.Context, userID string, rec domain.LoginRecord, limit int) error

	// ListLoginRecords returns a user's history oldest first.
	ListLoginRecords(ctx context.Context, userID string) ([]domain.LoginRecord, error)
}
