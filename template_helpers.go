package onboard

import (
	"maps"

	"github.com/goliatone/go-onboard/middleware/csrf"
	"github.com/goliatone/go-router"
)

var TemplateUserKey = "current_user"

// TemplateHelpers returns a map of helper functions and data that can be used
// with a template engine's global data for auth-related template functionality.
//
// In templates, you can then use:
//
//	{% if current_user %}
//	{% if current_user|has_role:"ADMIN" %}
//	{% if current_user|is_pending %}
//	{{ csrf_field }}
//	{{ csrf_token }}
func TemplateHelpers() map[string]any {
	helpers := map[string]any{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,
		"is_admin":         isAdmin,
		"is_pending":       statusChecker(StatusPending),
		"is_approved":      statusChecker(StatusApproved),
		"is_rejected":      statusChecker(StatusRejected),

		// Role and status constants for easy template access
		"roles": map[string]string{
			"user":  RoleUser,
			"admin": RoleAdmin,
		},
		"statuses": map[string]string{
			"pending":  StatusPending,
			"approved": StatusApproved,
			"rejected": StatusRejected,
		},
	}

	// add CSRF template helpers
	maps.Copy(helpers, csrf.CSRFTemplateHelpers())

	return helpers
}

// TemplateHelpersWithAccount returns template helpers with a specific account
// set as current_user.
func TemplateHelpersWithAccount(account *Account) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateUserKey] = account
	return helpers
}

// TemplateHelpersWithRouter returns template helpers with account data
// extracted from router context. It also includes CSRF token helpers when a
// CSRF token is available in the context.
func TemplateHelpersWithRouter(ctx router.Context, userKey string) map[string]any {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	helpers := TemplateHelpers()

	if user := ctx.Locals(userKey); user != nil {
		helpers[TemplateUserKey] = user
	}

	// Merge CSRF helpers with router context for actual token values
	for key, value := range csrf.CSRFTemplateHelpersWithRouter(ctx, csrf.DefaultContextKey) {
		helpers[key] = value
	}

	return helpers
}

// MergeTemplateData layers page data over the shared auth helpers so a
// handler can render with both in one call.
func MergeTemplateData(ctx router.Context, data router.ViewContext) router.ViewContext {
	merged := router.ViewContext{}

	for key, value := range TemplateHelpersWithRouter(ctx, TemplateUserKey) {
		merged[key] = value
	}

	for key, value := range data {
		merged[key] = value
	}

	return merged
}

// GetTemplateUser is a convenience function to extract account data from
// router context for template usage.
func GetTemplateUser(ctx router.Context, userKey string) (any, bool) {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	user := ctx.Locals(userKey)
	return user, user != nil
}

// isAuthenticated checks if the provided user object is not nil
func isAuthenticated(user any) bool {
	if user == nil {
		return false
	}

	switch u := user.(type) {
	case *Account:
		return u != nil
	case Account:
		return true
	case AuthClaims:
		return u != nil && u.AccountID() != ""
	case map[string]any:
		// Handle JSON-converted account objects
		return len(u) > 0
	default:
		return false
	}
}

// hasRole checks if the user has the specified role
func hasRole(user any, role string) bool {
	switch u := user.(type) {
	case *Account:
		if u == nil {
			return false
		}
		return u.Role == role
	case Account:
		return u.Role == role
	case AuthClaims:
		if u == nil {
			return false
		}
		return u.HasRole(role)
	case map[string]any:
		if userRole, exists := u["role"]; exists {
			if roleStr, ok := userRole.(string); ok {
				return roleStr == role
			}
		}
		return false
	default:
		return false
	}
}

// isAdmin checks if the user carries the admin role
func isAdmin(user any) bool {
	return hasRole(user, RoleAdmin)
}

// statusChecker builds a helper that tests the user's approval status
func statusChecker(status AccountStatus) func(user any) bool {
	return func(user any) bool {
		switch u := user.(type) {
		case *Account:
			if u == nil {
				return false
			}
			return u.Status == status
		case Account:
			return u.Status == status
		case AuthClaims:
			if u == nil {
				return false
			}
			return u.Status() == status
		case map[string]any:
			if userStatus, exists := u["status"]; exists {
				if statusStr, ok := userStatus.(string); ok {
					return statusStr == status
				}
			}
			return false
		default:
			return false
		}
	}
}
