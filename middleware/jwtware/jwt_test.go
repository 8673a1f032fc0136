package jwtware_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-onboard/middleware/jwtware"
)

type stubClaims struct {
	subject string
	role    string
	status  string
}

func (s stubClaims) Subject() string          { return s.subject }
func (s stubClaims) AccountID() string        { return s.subject }
func (s stubClaims) Role() string             { return s.role }
func (s stubClaims) Status() string           { return s.status }
func (s stubClaims) HasRole(role string) bool { return s.role == role }
func (s stubClaims) IsAdmin() bool            { return s.role == "ADMIN" }

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func passthrough(ctx router.Context) error {
	return ctx.Next()
}

func newConfig(validator jwtware.TokenValidator) jwtware.Config {
	return jwtware.Config{
		TokenValidator: validator,
		SigningKey: jwtware.SigningKey{
			Key:    []byte("test-secret"),
			JWTAlg: "HS256",
		},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	validator := stubValidator{claims: stubClaims{subject: "12345", role: "USER", status: "APPROVED"}}
	handler := jwtware.New(newConfig(validator))(passthrough)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer token-value"
	ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error for valid token: %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected NextCalled to be true, but got false")
	}

	// missing token
	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for missing token, got nil")
	}
	if !strings.Contains(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		t.Errorf("expected missing token error, got: %v", err)
	}
}

func TestJWTWare_ValidatorError(t *testing.T) {
	validator := stubValidator{err: errors.New("token is malformed")}
	handler := jwtware.New(newConfig(validator))(passthrough)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer bad-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer bad-token")

	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
	if !strings.Contains(err.Error(), "token is malformed") {
		t.Errorf("expected 'token is malformed' error, got: %v", err)
	}
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	validator := stubValidator{claims: stubClaims{subject: "12345", role: "USER"}}
	cfg := newConfig(validator)
	cfg.TokenLookup = "query:token,param:jwt,cookie:jwt_cookie"
	handler := jwtware.New(cfg)(passthrough)

	// query parameter
	ctx := router.NewMockContext()
	ctx.QueriesM["token"] = "tok"
	ctx.On("GetString", "token", "").Return("tok").Maybe()
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)
	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected Next to be invoked for valid token")
	}

	// URL parameter
	ctx = router.NewMockContext()
	ctx.ParamsM["jwt"] = "tok"
	ctx.On("GetString", "jwt", "").Return("tok").Maybe()
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)
	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// cookie
	ctx = router.NewMockContext()
	ctx.CookiesM["jwt_cookie"] = "tok"
	ctx.On("GetString", "jwt_cookie", "").Return("tok").Maybe()
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)
	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

// customPathMock overrides Path() from our base MockContext.
type customPathMock struct {
	*router.MockContext
	pathOverride string
}

func (m *customPathMock) Path() string {
	return m.pathOverride
}

func TestJWTWare_FilterFunction(t *testing.T) {
	validator := stubValidator{claims: stubClaims{subject: "12345"}}
	cfg := newConfig(validator)
	cfg.Filter = func(ctx router.Context) bool {
		// skip the middleware on "/public"
		return ctx.Path() == "/public"
	}
	handler := jwtware.New(cfg)(passthrough)

	ctx := &customPathMock{
		MockContext:  router.NewMockContext(),
		pathOverride: "/public",
	}

	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error because Filter should skip, got %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected Next() to be invoked due to Filter skip")
	}
}

func TestJWTWare_RequiredRole(t *testing.T) {
	validator := stubValidator{claims: stubClaims{subject: "12345", role: "USER"}}
	cfg := newConfig(validator)
	cfg.RequiredRole = "ADMIN"
	handler := jwtware.New(cfg)(passthrough)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer tok"
	ctx.On("GetString", "Authorization", "").Return("Bearer tok")

	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for missing role, got nil")
	}
	if !strings.Contains(err.Error(), "required role") {
		t.Errorf("expected required role error, got: %v", err)
	}
}

func TestJWTWare_AdminOnly(t *testing.T) {
	cfg := newConfig(stubValidator{claims: stubClaims{subject: "1", role: "USER"}})
	cfg.AdminOnly = true
	handler := jwtware.New(cfg)(passthrough)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer tok"
	ctx.On("GetString", "Authorization", "").Return("Bearer tok")

	if err := handler(ctx); err == nil {
		t.Fatal("expected error for non-admin claims, got nil")
	}

	cfg = newConfig(stubValidator{claims: stubClaims{subject: "1", role: "ADMIN"}})
	cfg.AdminOnly = true
	handler = jwtware.New(cfg)(passthrough)

	ctx = router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer tok"
	ctx.On("GetString", "Authorization", "").Return("Bearer tok")
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error for admin claims, got %v", err)
	}
}

func TestJWTWare_ValidationListeners(t *testing.T) {
	validator := stubValidator{claims: stubClaims{subject: "12345", role: "USER"}}
	cfg := newConfig(validator)

	var seen []string
	cfg.ValidationListeners = []jwtware.ValidationListener{
		func(ctx router.Context, claims jwtware.AuthClaims) error {
			seen = append(seen, claims.AccountID())
			return nil
		},
	}
	handler := jwtware.New(cfg)(passthrough)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer tok"
	ctx.On("GetString", "Authorization", "").Return("Bearer tok")
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(seen) != 1 || seen[0] != "12345" {
		t.Errorf("expected listener to observe claims, got %v", seen)
	}

	// listener failure blocks the request
	cfg.ValidationListeners = []jwtware.ValidationListener{
		func(ctx router.Context, claims jwtware.AuthClaims) error {
			return errors.New("listener rejected")
		},
	}
	handler = jwtware.New(cfg)(passthrough)

	ctx = router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer tok"
	ctx.On("GetString", "Authorization", "").Return("Bearer tok")

	if err := handler(ctx); err == nil {
		t.Fatal("expected listener error, got nil")
	}
}
