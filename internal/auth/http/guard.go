package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/internal/auth/service"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
)

type ctxKeyUser struct{}

func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(domain.User)
	return u, ok
}

// LoadUser runs after httpx.AuthnMiddleware and puts the token's user in the
// request context. A user deleted since issuance is a 404.
func LoadUser(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			claims, ok := httpx.ClaimsFromContext(ctx)
			if !ok || claims.Subject == "" {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.MessageAuthRequired)
				return
			}

			user, err := sessions.LoadUser(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					httpx.WriteError(w, http.StatusNotFound, msgUserNotFound)
					return
				}
				log.Error("failed to load user", "user_id", claims.Subject, "err", err)
				httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKeyUser{}, user)))
		})
	}
}
