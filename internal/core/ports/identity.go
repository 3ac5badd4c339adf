package ports

import (
	"context"

	"github.com/fittrack/presence-system/internal/core/domain"
)

// IdentityProvider resolves the local user from the externally issued session.
// Returns domain.ErrNotAuthenticated when no session is present; the presence
// pipeline must not start in that case.
type IdentityProvider interface {
	LocalIdentity(ctx context.Context) (domain.Identity, error)
}

// FriendRepository queries the relationship store for the set of peers the
// local user is authorized to see: accepted, bidirectional relationships where
// the user is either side. The result is a snapshot, not a live view.
type FriendRepository interface {
	AuthorizedPeers(ctx context.Context, userID string) (map[string]struct{}, error)
}

// ProfileRepository reads user profile data.
type ProfileRepository interface {
	// DisplayName returns the stored display name for userID, or
	// domain.ErrProfileNotFound.
	DisplayName(ctx context.Context, userID string) (string, error)
}
