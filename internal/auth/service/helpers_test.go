package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/internal/auth/ratelimit"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

var (
	testAccessSecret  = []byte("access-secret-for-tests-0123456789")
	testRefreshSecret = []byte("refresh-secret-for-tests-9876543210")
)

type stubLocator struct {
	mu    sync.Mutex
	loc   domain.Location
	calls []string
}

func (s *stubLocator) Resolve(_ context.Context, ip string) domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ip)
	return s.loc
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LoginEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.LoginEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	store   *sqlite.Store
	limiter *ratelimit.MemoryLimiter
	tokens  *TokenService
	geo     *stubLocator
	audit   *recordingPublisher
	svc     *SessionService
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens, err := NewTokenService(testAccessSecret, testRefreshSecret, "", 0, 0)
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryLimiter(ratelimit.Options{Max: maxAttempts, Window: time.Hour}, 0, nil)
	geo := &stubLocator{loc: domain.Location{City: "Sydney", Country: "Australia"}}
	pub := &recordingPublisher{}

	return &fixture{
		store:   st,
		limiter: limiter,
		tokens:  tokens,
		geo:     geo,
		audit:   pub,
		svc: &SessionService{
			Store:   st,
			Limiter: limiter,
			Tokens:  tokens,
			Geo:     geo,
			Audit:   pub,
		},
	}
}

func (f *fixture) register(t *testing.T, name, email, password string) domain.User {
	t.Helper()

	u, err := f.svc.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return u
}
