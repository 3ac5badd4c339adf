package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/core/ports"
)

// Authorizer holds the authorized peer set the subscriber filters against.
// The set is a snapshot: refetched at session start, on explicit triggers
// (friend-request acceptance relayed by the embedding app), and on a coarse
// background interval. A failed refresh keeps the last successfully fetched
// set, never "no peers" and never "all peers".
type Authorizer struct {
	repo ports.FriendRepository
	log  zerolog.Logger

	mu      sync.RWMutex
	userID  string
	peers   map[string]struct{}
	fetched bool
}

func NewAuthorizer(repo ports.FriendRepository, log zerolog.Logger) *Authorizer {
	return &Authorizer{
		repo:  repo,
		log:   log.With().Str("component", "authorizer").Logger(),
		peers: make(map[string]struct{}),
	}
}

// Bind sets the local user the peer set is fetched for.
func (a *Authorizer) Bind(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID = userID
}

// Refresh replaces the peer set with a fresh snapshot from the relationship
// store. On fetch failure the previous set stays in effect.
func (a *Authorizer) Refresh(ctx context.Context) error {
	a.mu.RLock()
	userID := a.userID
	a.mu.RUnlock()

	peers, err := a.repo.AuthorizedPeers(ctx, userID)
	if err != nil {
		a.log.Warn().Err(err).Msg("peer set refresh failed, keeping last known set")
		return err
	}

	a.mu.Lock()
	a.peers = peers
	a.fetched = true
	a.mu.Unlock()

	a.log.Debug().Int("peers", len(peers)).Msg("peer set refreshed")
	return nil
}

// Contains reports whether userID is in the current authorized set.
func (a *Authorizer) Contains(userID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.peers[userID]
	return ok
}

// Len returns the size of the current authorized set.
func (a *Authorizer) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.peers)
}

// Run refreshes the peer set on a coarse interval until ctx is cancelled.
// Errors are logged inside Refresh; the loop never stops on failure.
func (a *Authorizer) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = a.Refresh(ctx)
		}
	}
}
