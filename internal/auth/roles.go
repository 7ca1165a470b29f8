package auth

// Roles recognized by the authorization middleware. Every user holds exactly
// one role; admin implies everything a member can do.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}
