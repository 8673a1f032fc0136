package onboard

import (
	"context"

	"github.com/goliatone/go-router"
)

var accountCtxKey = &contextKey{"account"}
var claimsCtxKey = &contextKey{"claims"}
var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// WithContext sets the Account in the given context
func WithContext(r context.Context, account *Account) context.Context {
	return context.WithValue(r, accountCtxKey, account)
}

// FromContext finds the account from the context.
func FromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// WithActorContext sets the acting principal in the given context. Review
// handlers read it when a message arrives without an explicit actor.
func WithActorContext(r context.Context, actor ActorRef) context.Context {
	return context.WithValue(r, actorCtxKey, actor)
}

// ActorFromContext finds the acting principal from the context.
func ActorFromContext(ctx context.Context) (ActorRef, bool) {
	raw, ok := ctx.Value(actorCtxKey).(ActorRef)
	return raw, ok
}

// ActorFromClaims derives an ActorRef from validated claims.
func ActorFromClaims(claims AuthClaims) ActorRef {
	if claims == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   claims.AccountID(),
		Type: "account",
		Role: claims.Role(),
	}
}

// IsAdminFromRouter reports whether the request's claims carry the admin role.
func IsAdminFromRouter(ctx router.Context, key string) bool {
	claims, ok := GetRouterClaims(ctx, key)
	if !ok {
		return false
	}
	return claims.IsAdmin()
}
