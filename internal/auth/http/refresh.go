package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/geoadmin/internal/auth/service"
	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
)

type RefreshHandler struct {
	Sessions *service.SessionService
	Cookie   RefreshCookie
}

// ServeHTTP exchanges the refresh cookie for a new access token.
//
//	@Summary		Refresh access token
//	@Description	Reads the refreshToken cookie, issues a new access token and rotates the cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.RefreshResponse	"New access token"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or expired refresh token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pair, err := h.Sessions.Refresh(ctx, refreshTokenFromRequest(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			h.Cookie.Clear(w)
			httpx.WriteError(w, http.StatusUnauthorized, msgInvalidRefresh)
			return
		}
		slogx.FromContext(ctx).Error("refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.Cookie.Set(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshResponse{
		Success: true,
		Message: msgRefreshOK,
		Token:   pair.AccessToken,
	})
}

// LogoutHandler godoc
//
//	@Summary		Log out
//	@Description	Clears the refresh cookie. Access tokens stay valid until they expire.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Logged out"
//	@Router			/auth/logout [post].
func LogoutHandler(cookie RefreshCookie) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie.Clear(w)
		httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
			Success: true,
			Message: msgLogoutOK,
		})
	}
}
