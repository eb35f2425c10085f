package http

import (
	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
)

func toUserResponse(u domain.User) authsdk.User {
	out := authsdk.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	out.LoginHistory = make([]authsdk.LoginRecord, len(u.LoginHistory))
	for i, rec := range u.LoginHistory {
		out.LoginHistory[i] = authsdk.LoginRecord{
			IP:         rec.IP,
			City:       rec.City,
			Country:    rec.Country,
			LoggedInAt: rec.LoggedInAt,
		}
	}
	return out
}
