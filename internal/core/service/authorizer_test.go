package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type stubFriendRepo struct {
	peers map[string]struct{}
	err   error
	calls int
}

func (r *stubFriendRepo) AuthorizedPeers(_ context.Context, _ string) (map[string]struct{}, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.peers, nil
}

func TestAuthorizer_RefreshReplacesSet(t *testing.T) {
	repo := &stubFriendRepo{peers: map[string]struct{}{"u2": {}}}
	auth := NewAuthorizer(repo, zerolog.Nop())
	auth.Bind("u1")

	if err := auth.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !auth.Contains("u2") {
		t.Error("u2 should be authorized")
	}
	if auth.Contains("u3") {
		t.Error("u3 should not be authorized")
	}

	repo.peers = map[string]struct{}{"u3": {}}
	if err := auth.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if auth.Contains("u2") || !auth.Contains("u3") {
		t.Error("refresh did not replace the peer set")
	}
}

func TestAuthorizer_FetchFailureKeepsLastGoodSet(t *testing.T) {
	repo := &stubFriendRepo{peers: map[string]struct{}{"u2": {}}}
	auth := NewAuthorizer(repo, zerolog.Nop())
	auth.Bind("u1")

	if err := auth.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	repo.err = errors.New("store unavailable")
	if err := auth.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	// Conservative behavior: neither "no peers" nor "all peers".
	if !auth.Contains("u2") {
		t.Error("last good set should stay in effect after a failed refresh")
	}
	if auth.Contains("u3") {
		t.Error("failed refresh must not open the filter")
	}
}

func TestAuthorizer_EmptyBeforeFirstFetch(t *testing.T) {
	auth := NewAuthorizer(&stubFriendRepo{}, zerolog.Nop())
	auth.Bind("u1")

	if auth.Contains("u2") {
		t.Error("filter should be closed before the first successful fetch")
	}
	if auth.Len() != 0 {
		t.Errorf("expected empty set, got %d", auth.Len())
	}
}
