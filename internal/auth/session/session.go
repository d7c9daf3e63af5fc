package session

import (
	"errors"

	"github.com/adagearchive/moderation/internal/auth/permission"
	"github.com/gin-gonic/gin"
)

const ctxKeyUserProfile = "user_profile"

var ErrNotLoggedIn = errors.New("not logged in")

type UserProfile struct {
	UserID          int64                `json:"user_id"`
	Name            string               `json:"name"`
	PermissionLevel permission.Privilege `json:"permission_level"`
}

func (p UserProfile) HasPermission(level permission.Privilege) bool {
	return p.PermissionLevel.Has(level)
}

func Guest() UserProfile {
	return UserProfile{PermissionLevel: permission.Guest, Name: "Guest"}
}

func SetUserProfile(ctx *gin.Context, profile UserProfile) {
	ctx.Set(ctxKeyUserProfile, profile)
}

func CurrentUserProfile(ctx *gin.Context) (UserProfile, error) {
	maybePerson, found := ctx.Get(ctxKeyUserProfile)
	if !found {
		return UserProfile{}, ErrNotLoggedIn
	}

	profile, ok := maybePerson.(UserProfile)
	if !ok || profile.UserID <= 0 {
		return UserProfile{}, ErrNotLoggedIn
	}

	return profile, nil
}
