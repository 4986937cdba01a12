package auth

var roleHierarchy = map[UserRole]int{
	RoleGuest:  0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(role UserRole) bool {
	_, ok := roleHierarchy[role]
	return ok
}

// RoleAtLeast checks if the role meets the minimum required level.
// Unknown roles never satisfy any minimum.
func RoleAtLeast(role, minRole UserRole) bool {
	currentLevel, ok := roleHierarchy[role]
	if !ok {
		return false
	}

	minLevel, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleGuest,
		RoleMember,
		RoleAdmin,
		RoleOwner,
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
