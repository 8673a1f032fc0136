package onboard

// Decision is the outcome of an access check against a route.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// RedirectLogin sends the caller to the login route. Covers both the
	// signed-out case and a role the session does not hold: an account
	// without the role needs different credentials, not a dead end.
	RedirectLogin
	// Deny refuses outright. Reserved for checks where redirecting would
	// leak information or loop; Decide never returns it today.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Decide evaluates whether the given session may access a route requiring
// requiredRole. An empty requiredRole means any authenticated session
// qualifies. Decide is pure: it inspects only its arguments, so callers must
// evaluate it on every request rather than caching the outcome.
func Decide(session Session, requiredRole AccountRole) Decision {
	if session == nil {
		return RedirectLogin
	}

	identity := session.GetIdentity()
	if identity == nil {
		return RedirectLogin
	}

	if requiredRole != "" && identity.Role != requiredRole {
		return RedirectLogin
	}

	return Allow
}
