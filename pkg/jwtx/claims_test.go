package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/geoadmin/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	c := jwtx.NewClaims("user-1", "a@b.com", "user", jwtx.TypeAccess, "geoadmin", jwtx.DefaultAccessTokenTTL, now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "a@b.com", c.Email)
	require.Equal(t, "user", c.Role)
	require.Equal(t, jwtx.TypeAccess, c.Type)
	require.Equal(t, "geoadmin", c.Issuer)
	require.True(t, now.Add(15*time.Minute).Equal(c.ExpiresAt.Time))
	require.NotEmpty(t, c.ID)

	other := jwtx.NewClaims("user-1", "a@b.com", "user", jwtx.TypeAccess, "geoadmin", time.Minute, now)
	require.NotEqual(t, c.ID, other.ID, "jti should be unique per token")
}
