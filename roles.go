package onboard

// RoleValidator defines the interface for role-based access checks
type RoleValidator interface {
	// HasRole checks if the account has a specific role
	HasRole(role string) bool

	// IsAdmin checks if the account carries the admin role
	IsAdmin() bool
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r AccountRole) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsValidStatus checks if the status is part of the approval lifecycle
func IsValidStatus(s AccountStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []AccountRole {
	return []AccountRole{
		RoleUser,
		RoleAdmin,
	}
}

// GetAllStatuses returns every lifecycle status in transition order
func GetAllStatuses() []AccountStatus {
	return []AccountStatus{
		StatusPending,
		StatusApproved,
		StatusRejected,
	}
}

// ParseRole safely parses a string into an AccountRole
func ParseRole(roleStr string) (AccountRole, bool) {
	role := AccountRole(roleStr)
	return role, IsValidRole(role)
}

// ParseStatus safely parses a string into an AccountStatus
func ParseStatus(statusStr string) (AccountStatus, bool) {
	status := AccountStatus(statusStr)
	return status, IsValidStatus(status)
}
