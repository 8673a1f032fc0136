package onboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}
var _ RoleValidator = &SessionObject{}

// IdentitySnapshot is the decoded identity a session caches so UI and
// routing decisions do not need a network round trip. The snapshot reflects
// the account at token-issue time; status freshness is the caller's problem
// (check at point of use).
type IdentitySnapshot struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name,omitempty"`
	Role     AccountRole   `json:"role"`
	Status   AccountStatus `json:"status,omitempty"`
}

type SessionObject struct {
	Token          string            `json:"token,omitempty"`
	AccountID      string            `json:"account_id,omitempty"`
	Audience       []string          `json:"audience,omitempty"`
	Issuer         string            `json:"issuer,omitempty"`
	IssuedAt       *time.Time        `json:"issued_at,omitempty"`
	ExpirationDate *time.Time        `json:"expiration_date,omitempty"`
	Identity       *IdentitySnapshot `json:"identity,omitempty"`
}

func (s *SessionObject) GetAccountID() string {
	return s.AccountID
}

func (s *SessionObject) GetAccountUUID() (uuid.UUID, error) {
	return uuid.Parse(s.AccountID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetIdentity() *IdentitySnapshot {
	return s.Identity
}

func (s *SessionObject) GetToken() string {
	return s.Token
}

// HasRole checks if the session's account has a specific role
func (s *SessionObject) HasRole(role string) bool {
	return s.role() == role
}

// IsAdmin checks if the session's account carries the admin role
func (s *SessionObject) IsAdmin() bool {
	return s.role() == RoleAdmin
}

func (s *SessionObject) role() AccountRole {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// TODO: enable only in development!
func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"account=%s aud=%v iss=%s iat=%s identity=%v",
		s.AccountID,
		s.Audience,
		s.Issuer,
		issuedAt,
		s.Identity,
	)
}

// sessionFromAuthClaims creates a SessionObject from validated claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	identity := &IdentitySnapshot{
		ID:       claims.AccountID(),
		Email:    claims.Email(),
		FullName: claims.FullName(),
		Role:     claims.Role(),
		Status:   claims.Status(),
	}

	var audience []string
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		audience = append(audience, jwtClaims.RegisteredClaims.Audience...)
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		AccountID:      claims.AccountID(),
		Audience:       audience,
		Issuer:         getIssuerFromClaims(claims),
		Identity:       identity,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}

// getIssuerFromClaims extracts the issuer from AuthClaims
func getIssuerFromClaims(claims AuthClaims) string {
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Issuer != "" {
			return jwtClaims.RegisteredClaims.Issuer
		}
	}
	// Fallback to subject if no issuer is available
	return claims.Subject()
}
