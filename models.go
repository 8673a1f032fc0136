package onboard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's authorization class
type AccountRole = string

const (
	// RoleUser is a regular account (i.e. self-service routes)
	RoleUser AccountRole = "USER"
	// RoleAdmin is an administrator account (i.e. review queue access)
	RoleAdmin AccountRole = "ADMIN"
)

// AccountStatus tracks where an account sits in the approval lifecycle.
type AccountStatus = string

const (
	// StatusPending is the initial status, waiting on an admin decision
	StatusPending AccountStatus = "PENDING"
	// StatusApproved is the terminal status for accepted accounts
	StatusApproved AccountStatus = "APPROVED"
	// StatusRejected is the terminal status for declined accounts
	StatusRejected AccountStatus = "REJECTED"
)

// Account is the account model
type Account struct {
	bun.BaseModel   `bun:"table:accounts,alias:acc"`
	ID              uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role            AccountRole   `bun:"account_role,notnull" json:"account_role,omitempty"`
	FullName        string        `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email           string        `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone           string        `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash    string        `bun:"password_hash" json:"password_hash,omitempty"`
	Status          AccountStatus `bun:"status,notnull" json:"status,omitempty"`
	RejectionReason *string       `bun:"rejection_reason,nullzero" json:"rejection_reason,omitempty"`
	CreatedAt       *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults the status for records created before the
// approval workflow existed.
func (a *Account) EnsureStatus() {
	if a.Status == "" {
		a.Status = StatusPending
	}
}

// IsPending reports whether the account is waiting for review.
func (a *Account) IsPending() bool {
	return a.Status == StatusPending
}

// IsApproved reports whether the account cleared review.
func (a *Account) IsApproved() bool {
	return a.Status == StatusApproved
}

// IsRejected reports whether the account was declined.
func (a *Account) IsRejected() bool {
	return a.Status == StatusRejected
}

// IsResolved reports whether the account left the review queue.
func (a *Account) IsResolved() bool {
	return a.IsApproved() || a.IsRejected()
}

// SetRejection stores the reviewer's reason alongside the rejected status.
func (a *Account) SetRejection(reason string) {
	a.RejectionReason = &reason
}

// ClearRejection drops the rejection reason. Every non-rejected status must
// keep rejection_reason empty.
func (a *Account) ClearRejection() {
	a.RejectionReason = nil
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
