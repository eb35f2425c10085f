package http

import (
	"net/http"

	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
)

// ProfileHandler godoc
//
//	@Summary		Get profile
//	@Description	Returns the authenticated user including login history, oldest first.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse	"Current user"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/profile [get].
func ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
			Success: true,
			Message: msgProfileOK,
			Data:    toUserResponse(user),
		})
	}
}
