// Package person reads the website's user records. It backs the admin directory used for appeal
// fan out and the email lookups used by notification delivery.
package person

import (
	"errors"
	"time"

	"github.com/adagearchive/moderation/internal/auth/permission"
)

var ErrNotFound = errors.New("person not found")

type Person struct {
	UserID          int64                `json:"user_id"`
	Name            string               `json:"name"`
	Email           string               `json:"-"`
	PermissionLevel permission.Privilege `json:"permission_level"`
	CreatedOn       time.Time            `json:"created_on"`
}
