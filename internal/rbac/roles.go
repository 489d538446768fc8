package rbac

// Role names. Keep these stable; they are stored on users and carried in sessions.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// Valid reports whether role is one of the known roles.
func Valid(role string) bool {
	switch role {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}
