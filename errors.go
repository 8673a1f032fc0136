package onboard

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrNoEmptyString marks a required string argument that came in blank
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrMismatchedHashAndPassword is the generic credential failure. It covers
// both unknown identifiers and bad passwords so callers cannot probe for
// registered emails.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be decoded into claims.
var ErrTokenMalformed = goerrors.New("authentication token malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrImmutableClaimMutation is returned when a claims decorator touches
// registered or identity claims.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode("IMMUTABLE_CLAIM_MUTATION")

// ErrEmailTaken is returned when a registration collides with an existing
// account email.
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(goerrors.CodeConflict)

// ErrAdminRequired is returned when a lifecycle decision is attempted by a
// non admin actor.
var ErrAdminRequired = goerrors.New("admin role required", goerrors.CategoryAuthz).
	WithTextCode("ADMIN_REQUIRED").
	WithCode(goerrors.CodeForbidden)

// ErrEmptyRejectionReason is returned when a reject decision carries no reason.
var ErrEmptyRejectionReason = goerrors.New("rejection reason is required", goerrors.CategoryValidation).
	WithTextCode("EMPTY_REJECTION_REASON").
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
