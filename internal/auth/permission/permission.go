package permission

import "errors"

var ErrDenied = errors.New("permission denied")

type Privilege uint8

const (
	Guest     Privilege = 0   // Non logged in user
	User      Privilege = 10  // Normal logged-in user
	Moderator Privilege = 50  // Can decide challenges and adjudicate appeals
	Admin     Privilege = 100 // Unrestricted admin, receives appeal tickets
)

func (p Privilege) String() string {
	switch p {
	case Guest:
		return "guest"
	case User:
		return "user"
	case Moderator:
		return "moderator"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// Has reports whether p meets the required level.
func (p Privilege) Has(required Privilege) bool {
	return p >= required
}
