package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

// IdentityService resolves the local identity from the externally issued
// session token (HS256, minted by the backend's auth service) and refreshes
// the display name from the profile store. It implements
// ports.IdentityProvider; authentication itself happens elsewhere; this
// service only verifies and reads.
type IdentityService struct {
	token    string
	secret   string
	profiles ports.ProfileRepository
	log      zerolog.Logger
}

func NewIdentityService(token, secret string, profiles ports.ProfileRepository, log zerolog.Logger) *IdentityService {
	return &IdentityService{
		token:    token,
		secret:   secret,
		profiles: profiles,
		log:      log.With().Str("component", "identity").Logger(),
	}
}

// LocalIdentity verifies the session token and returns the identity it names.
// A missing or invalid token yields domain.ErrNotAuthenticated: the presence
// pipeline must not start without a resolved identity. Profile-store failures
// are non-fatal; the display name from the token claims is used instead.
func (s *IdentityService) LocalIdentity(ctx context.Context) (domain.Identity, error) {
	if s.token == "" {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(s.token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.secret), nil
	})
	if err != nil || !tkn.Valid {
		return domain.Identity{}, fmt.Errorf("%w: invalid session token", domain.ErrNotAuthenticated)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return domain.Identity{}, fmt.Errorf("%w: token missing subject", domain.ErrNotAuthenticated)
	}
	displayName, _ := claims["username"].(string)

	// Display name refresh: the profile store wins over the (possibly stale)
	// token claim, but its failure never blocks startup.
	if name, err := s.profiles.DisplayName(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("display name refresh failed, using token claim")
	} else if name != "" {
		displayName = name
	}

	return domain.Identity{UserID: userID, DisplayName: displayName}, nil
}
