package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/core/domain"
)

type stubProfileRepo struct {
	name string
	err  error
}

func (r *stubProfileRepo) DisplayName(_ context.Context, _ string) (string, error) {
	return r.name, r.err
}

func sessionToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestIdentityService_ResolvesFromToken(t *testing.T) {
	token := sessionToken(t, "secret", jwt.MapClaims{"sub": "u1", "username": "alice"})
	svc := NewIdentityService(token, "secret", &stubProfileRepo{name: "Alice M."}, zerolog.Nop())

	id, err := svc.LocalIdentity(context.Background())
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	if id.UserID != "u1" {
		t.Errorf("expected user u1, got %q", id.UserID)
	}
	// The profile store wins over the token claim.
	if id.DisplayName != "Alice M." {
		t.Errorf("expected refreshed display name, got %q", id.DisplayName)
	}
}

func TestIdentityService_ProfileFailureFallsBackToClaim(t *testing.T) {
	token := sessionToken(t, "secret", jwt.MapClaims{"sub": "u1", "username": "alice"})
	svc := NewIdentityService(token, "secret", &stubProfileRepo{err: errors.New("store down")}, zerolog.Nop())

	id, err := svc.LocalIdentity(context.Background())
	if err != nil {
		t.Fatalf("profile failure must not block identity resolution: %v", err)
	}
	if id.DisplayName != "alice" {
		t.Errorf("expected claim display name, got %q", id.DisplayName)
	}
}

func TestIdentityService_EmptyToken(t *testing.T) {
	svc := NewIdentityService("", "secret", &stubProfileRepo{}, zerolog.Nop())

	_, err := svc.LocalIdentity(context.Background())
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestIdentityService_WrongSecret(t *testing.T) {
	token := sessionToken(t, "other", jwt.MapClaims{"sub": "u1"})
	svc := NewIdentityService(token, "secret", &stubProfileRepo{}, zerolog.Nop())

	_, err := svc.LocalIdentity(context.Background())
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestIdentityService_MissingSubject(t *testing.T) {
	token := sessionToken(t, "secret", jwt.MapClaims{"username": "alice"})
	svc := NewIdentityService(token, "secret", &stubProfileRepo{}, zerolog.Nop())

	_, err := svc.LocalIdentity(context.Background())
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
