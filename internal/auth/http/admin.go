package http

import (
	"net/http"
	"net/netip"

	"github.com/aussiebroadwan/geoadmin/internal/auth/service"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
)

type RateLimitResetHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP clears the login window for one address.
//
//	@Summary		Reset login rate limit
//	@Description	Clears the login attempt counter for a client address. Requires the admin role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			ip	path	string	true	"Client IP address"
//	@Success		204	"Counter cleared"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Not an IP address"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Insufficient permissions"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/admin/ratelimit/{ip} [delete].
func (h *RateLimitResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	addr, err := netip.ParseAddr(r.PathValue("ip"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidIPArgument)
		return
	}

	if err := h.Sessions.ResetAttempts(ctx, addr.String()); err != nil {
		log.Error("failed to reset rate limit", "ip", addr.String(), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	log.Info("login rate limit reset", "ip", addr.String())
	w.WriteHeader(http.StatusNoContent)
}
