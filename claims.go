package onboard

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims carrying the identity snapshot
// this module encodes into session tokens.
type AuthClaims interface {
	Subject() string
	AccountID() string
	Role() string
	Email() string
	FullName() string
	Status() AccountStatus
	HasRole(role string) bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID           string         `json:"uid,omitempty"`
	UserRole      string         `json:"role,omitempty"`
	AccountEmail  string         `json:"email,omitempty"`
	Name          string         `json:"name,omitempty"`
	AccountStatus AccountStatus  `json:"status,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// AccountID returns the account ID
func (c *JWTClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the account role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Email returns the account email
func (c *JWTClaims) Email() string {
	return c.AccountEmail
}

// FullName returns the account display name
func (c *JWTClaims) FullName() string {
	return c.Name
}

// Status returns the approval status the token was minted with. It is a
// snapshot: the authoritative status lives with the store and must be
// re-checked at point of use.
func (c *JWTClaims) Status() AccountStatus {
	return c.AccountStatus
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// HasRole checks if the account has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAdmin checks if the account carries the admin role
func (c *JWTClaims) IsAdmin() bool {
	return c.UserRole == RoleAdmin
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
