package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/geoadmin/internal/auth/audit"
	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/internal/auth/metrics"
	"github.com/aussiebroadwan/geoadmin/internal/auth/ratelimit"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store"
	"github.com/aussiebroadwan/geoadmin/pkg/cryptox"
	"github.com/aussiebroadwan/geoadmin/pkg/idx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
)

const MinPasswordLength = 6

// Client-facing validation messages.
const (
	MsgLoginFieldsRequired    = "Email and password are required"
	MsgRegisterFieldsRequired = "All fields are required"
	MsgPasswordTooShort       = "Password must be at least 6 characters"
	MsgPasswordTooLong        = "Password cannot be more than 72 bytes"
	MsgInvalidEmail           = "Invalid email format"
	MsgNameTooLong            = "Name cannot be more than 50 characters"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Locator resolves a client address to a location and never fails.
type Locator interface {
	Resolve(ctx context.Context, ip string) domain.Location
}

// SessionService runs the login, register, refresh and guard flows.
type SessionService struct {
	Store        store.Store
	Limiter      ratelimit.Limiter
	Tokens       *TokenService
	Geo          Locator
	Audit        audit.Publisher
	Metrics      *metrics.Metrics
	HistoryLimit int

	// Now stamps login records; tests replace it.
	Now func() time.Time
}

type LoginResult struct {
	User   domain.User
	Tokens domain.TokenPair
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) historyLimit() int {
	if s.HistoryLimit <= 0 {
		return domain.DefaultHistoryLimit
	}
	return s.HistoryLimit
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login authenticates email/password for a request from ip.
//
// The attempt is counted before anything else, so malformed or empty input
// still costs one attempt. Failures after the throttle are *LoginError with
// the remaining budget; a throttled address gets *RateLimitedError.
func (s *SessionService) Login(ctx context.Context, ip, email, password string) (*LoginResult, error) {
	l := slogx.FromContext(ctx).With(slog.String("ip", ip))

	res, err := s.Limiter.Check(ctx, ip)
	switch {
	case err != nil:
		// A broken shared limiter must not lock everyone out.
		l.Warn("rate limiter unavailable, allowing attempt", slog.Any("error", err))
	case !res.Allowed:
		s.Metrics.RateLimited()
		s.Metrics.LoginAttempt(metrics.OutcomeRateLimited)
		l.Info("login rate limited", slog.Time("reset_at", res.ResetAt))
		return nil, &RateLimitedError{ResetAt: res.ResetAt}
	}

	fail := func(outcome string, err error) (*LoginResult, error) {
		s.Metrics.LoginAttempt(outcome)
		return nil, &LoginError{Err: err, RemainingAttempts: s.RemainingAttempts(ctx, ip)}
	}

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fail(metrics.OutcomeValidation, invalid(MsgLoginFieldsRequired))
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnCompare(password)
			l.Info("login failed", slog.String("reason", "unknown_email"))
			return fail(metrics.OutcomeInvalid, ErrInvalidCredentials)
		}
		l.Error("failed to load user for login", slog.Any("error", err))
		return fail(metrics.OutcomeError, err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash is unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		l.Info("login failed", slog.String("reason", "bad_password"), slog.String("user_id", user.ID))
		return fail(metrics.OutcomeInvalid, ErrInvalidCredentials)
	}

	loc := s.Geo.Resolve(ctx, ip)
	rec := domain.LoginRecord{
		IP:         ip,
		City:       loc.City,
		Country:    loc.Country,
		LoggedInAt: s.now().UTC(),
	}

	userID := user.ID
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.LoginHistory().AppendLoginRecord(ctx, userID, rec, s.historyLimit()); err != nil {
			return err
		}
		fresh, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		user = fresh
		return nil
	})
	if err != nil {
		l.Error("failed to record login", slog.String("user_id", userID), slog.Any("error", err))
		return fail(metrics.OutcomeError, err)
	}

	tokens, err := s.Tokens.Issue(user)
	if err != nil {
		l.Error("failed to issue tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return fail(metrics.OutcomeError, err)
	}

	s.publish(ctx, user, rec)
	s.Metrics.LoginAttempt(metrics.OutcomeSuccess)
	l.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("city", rec.City),
		slog.String("country", rec.Country),
	)
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *SessionService) publish(ctx context.Context, user domain.User, rec domain.LoginRecord) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.Publish(ctx, domain.LoginEvent{
		UserID:     user.ID,
		Email:      user.Email,
		IP:         rec.IP,
		City:       rec.City,
		Country:    rec.Country,
		LoggedInAt: rec.LoggedInAt,
	})
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to publish login event", slog.Any("error", err))
	}
}

// RemainingAttempts reports what is left in ip's window. Limiter errors
// report zero rather than failing the response.
func (s *SessionService) RemainingAttempts(ctx context.Context, ip string) int {
	n, err := s.Limiter.Remaining(ctx, ip)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to read remaining attempts", slog.Any("error", err))
		return 0
	}
	return n
}

// ResetAttempts clears the window for ip.
func (s *SessionService) ResetAttempts(ctx context.Context, ip string) error {
	return s.Limiter.Reset(ctx, ip)
}

// Register creates a regular user. The role is always domain.RoleUser no
// matter what the caller asked for.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	l := slogx.FromContext(ctx)

	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	switch {
	case name == "" || email == "" || in.Password == "":
		s.Metrics.Registration(metrics.OutcomeValidation)
		return domain.User{}, invalid(MsgRegisterFieldsRequired)
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		s.Metrics.Registration(metrics.OutcomeValidation)
		return domain.User{}, invalid(MsgPasswordTooShort)
	case len(in.Password) > cryptox.MaxPasswordBytes:
		s.Metrics.Registration(metrics.OutcomeValidation)
		return domain.User{}, invalid(MsgPasswordTooLong)
	case !emailPattern.MatchString(email):
		s.Metrics.Registration(metrics.OutcomeValidation)
		return domain.User{}, invalid(MsgInvalidEmail)
	case utf8.RuneCountInString(name) > domain.MaxNameLength:
		s.Metrics.Registration(metrics.OutcomeValidation)
		return domain.User{}, invalid(MsgNameTooLong)
	}

	user, err := s.createUser(ctx, name, email, in.Password, domain.RoleUser)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.Metrics.Registration(metrics.OutcomeConflict)
			l.Info("registration rejected, email taken")
			return domain.User{}, err
		}
		s.Metrics.Registration(metrics.OutcomeError)
		l.Error("failed to register user", slog.Any("error", err))
		return domain.User{}, err
	}

	s.Metrics.Registration(metrics.OutcomeSuccess)
	l.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

func (s *SessionService) createUser(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		LoginHistory: []domain.LoginRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded so
// the new tokens carry the current email and role, and a deleted user can no
// longer refresh.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(refreshToken) == "" {
		s.Metrics.TokenRefresh(metrics.OutcomeInvalid)
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.Metrics.TokenRefresh(metrics.OutcomeInvalid)
		l.Info("refresh token rejected", slog.Any("error", err))
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.TokenRefresh(metrics.OutcomeInvalid)
			l.Info("refresh for missing user", slog.String("user_id", claims.Subject))
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		s.Metrics.TokenRefresh(metrics.OutcomeError)
		return domain.TokenPair{}, err
	}

	pair, err := s.Tokens.Issue(user)
	if err != nil {
		s.Metrics.TokenRefresh(metrics.OutcomeError)
		return domain.TokenPair{}, err
	}

	s.Metrics.TokenRefresh(metrics.OutcomeSuccess)
	return pair, nil
}

// LoadUser fetches the user behind a verified access token.
func (s *SessionService) LoadUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
