package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/service"
	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
)

type LoginHandler struct {
	Sessions *service.SessionService
	Cookie   RefreshCookie
}

// ServeHTTP handles email/password login.
//
//	@Summary		Log in
//	@Description	Verifies email and password for the calling address. Every call, valid or not, counts against a fixed hourly window per client address.
//	@Description	On success the access token is returned in the body and the refresh token is set as the HttpOnly refreshToken cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"User with login history and access token"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing email or password"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid email or password"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many login attempts"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	ip := httpx.ClientIP(r)

	// A body that fails to decode is treated as empty credentials so it is
	// still counted and answered with the remaining budget.
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		log.Debug("login body did not decode", "err", err)
		req = authsdk.LoginRequest{}
	}

	res, err := h.Sessions.Login(ctx, ip, req.Email, req.Password)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	h.Cookie.Set(w, res.Tokens.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success: true,
		Message: msgLoginOK,
		User:    toUserResponse(res.User),
		Token:   res.Tokens.AccessToken,
	})
}

func writeLoginError(w http.ResponseWriter, err error) {
	var limited *service.RateLimitedError
	if errors.As(err, &limited) {
		w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfter(time.Now())))
		authsdk.NewLoginError(http.StatusTooManyRequests,
			msgTooManyAttempts+limited.ResetAt.UTC().Format(time.RFC1123), 0).WriteError(w)
		return
	}

	remaining := 0
	var le *service.LoginError
	if errors.As(err, &le) {
		remaining = le.RemainingAttempts
	}

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		authsdk.NewLoginError(http.StatusBadRequest, ve.Message, remaining).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.NewLoginError(http.StatusUnauthorized, msgInvalidLogin, remaining).WriteError(w)
	default:
		authsdk.NewLoginError(http.StatusInternalServerError, msgInternal, remaining).WriteError(w)
	}
}
