package onboard_test

import (
	"context"
	"testing"

	onboard "github.com/goliatone/go-onboard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountContextRoundTrip(t *testing.T) {
	account := &onboard.Account{ID: uuid.New(), Email: "user@example.com"}

	ctx := onboard.WithContext(context.Background(), account)

	got, ok := onboard.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, account, got)
}

func TestAccountContextMissing(t *testing.T) {
	_, ok := onboard.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &onboard.JWTClaims{UID: "acc-1", UserRole: onboard.RoleAdmin}

	ctx := onboard.WithClaimsContext(context.Background(), claims)

	got, ok := onboard.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "acc-1", got.AccountID())
	assert.True(t, got.IsAdmin())
}

func TestActorContextRoundTrip(t *testing.T) {
	actor := onboard.ActorRef{ID: "admin-1", Type: "account", Role: onboard.RoleAdmin}

	ctx := onboard.WithActorContext(context.Background(), actor)

	got, ok := onboard.ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, actor, got)

	_, ok = onboard.ActorFromContext(context.Background())
	assert.False(t, ok)
}

func TestActorFromClaims(t *testing.T) {
	claims := &onboard.JWTClaims{UID: "acc-1", UserRole: onboard.RoleUser}

	actor := onboard.ActorFromClaims(claims)
	assert.Equal(t, "acc-1", actor.ID)
	assert.Equal(t, "account", actor.Type)
	assert.Equal(t, onboard.RoleUser, actor.Role)
	assert.False(t, actor.IsAdmin())
}

func TestActorFromClaimsNil(t *testing.T) {
	actor := onboard.ActorFromClaims(nil)
	assert.Equal(t, "unknown", actor.Type)
	assert.Empty(t, actor.ID)
}

func TestGetRouterClaims(t *testing.T) {
	claims := &onboard.JWTClaims{UID: "acc-1", UserRole: onboard.RoleAdmin}

	ctx := &MockContext{}
	ctx.On("Locals", "user").Return(claims)

	got, ok := onboard.GetRouterClaims(ctx, "")
	require.True(t, ok)
	assert.Equal(t, "acc-1", got.AccountID())
}

func TestGetRouterClaimsCustomKey(t *testing.T) {
	claims := &onboard.JWTClaims{UID: "acc-1"}

	ctx := &MockContext{}
	ctx.On("Locals", "session").Return(claims)

	_, ok := onboard.GetRouterClaims(ctx, "session")
	assert.True(t, ok)
}

func TestGetRouterClaimsMissing(t *testing.T) {
	ctx := &MockContext{}
	ctx.On("Locals", "user").Return(nil)

	_, ok := onboard.GetRouterClaims(ctx, "user")
	assert.False(t, ok)
}

func TestIsAdminFromRouter(t *testing.T) {
	admin := &onboard.JWTClaims{UID: "acc-1", UserRole: onboard.RoleAdmin}
	member := &onboard.JWTClaims{UID: "acc-2", UserRole: onboard.RoleUser}

	adminCtx := &MockContext{}
	adminCtx.On("Locals", "user").Return(admin)
	assert.True(t, onboard.IsAdminFromRouter(adminCtx, "user"))

	memberCtx := &MockContext{}
	memberCtx.On("Locals", "user").Return(member)
	assert.False(t, onboard.IsAdminFromRouter(memberCtx, "user"))

	emptyCtx := &MockContext{}
	emptyCtx.On("Locals", "user").Return(nil)
	assert.False(t, onboard.IsAdminFromRouter(emptyCtx, "user"))
}
