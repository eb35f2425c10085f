package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store"
	"github.com/aussiebroadwan/geoadmin/pkg/cryptox"
	"github.com/aussiebroadwan/geoadmin/pkg/idx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
)

const DefaultAdminName = "Admin User"

var (
	ErrBootstrapInvalid             = errors.New("admin seed needs a valid email, a password of 6 to 72 bytes and a name of at most 50 characters")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")
)

// BootstrapService seeds the first admin account at startup.
type BootstrapService struct {
	Store store.Store
}

type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// SeedAdmin creates the admin unless a user with that email already exists.
// It reports whether a user was created.
func (s *BootstrapService) SeedAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	l := slogx.FromContext(ctx)

	email := NormalizeEmail(seed.Email)
	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = DefaultAdminName
	}
	switch {
	case !emailPattern.MatchString(email),
		len(seed.Password) < MinPasswordLength,
		len(seed.Password) > cryptox.MaxPasswordBytes,
		utf8.RuneCountInString(name) > domain.MaxNameLength:
		return false, ErrBootstrapInvalid
	}

	existing, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.Info("admin user already exists", slog.String("user_id", existing.ID))
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	hash, err := cryptox.HashPassword(seed.Password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return false, ErrBootstrapFailedToCreateAdmin
	}

	adminID := idx.New().String()
	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           adminID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Another instance won the race.
		return false, nil
	}
	if err != nil {
		l.Error("failed to create admin user", slog.String("admin_user_id", adminID), slog.Any("error", err))
		return false, ErrBootstrapFailedToCreateAdmin
	}

	l.Info("seeded admin user", slog.String("admin_user_id", adminID))
	return true, nil
}
