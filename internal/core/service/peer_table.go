package service

import (
	"sync"
	"time"

	"github.com/fittrack/presence-system/internal/api/metrics"
	"github.com/fittrack/presence-system/internal/core/domain"
)

// PeerTable is the shared in-memory state: one entry per peer, last write
// wins. The subscriber writes, the reaper deletes, renderers read snapshots.
// All access is mutex-guarded; no method blocks on anything but the lock.
type PeerTable struct {
	mu    sync.RWMutex
	peers map[string]domain.PeerEntry
}

func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[string]domain.PeerEntry)}
}

// Upsert creates or overwrites the entry for e.UserID.
func (t *PeerTable) Upsert(e domain.PeerEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[e.UserID] = e
	metrics.LivePeers.Set(float64(len(t.peers)))
}

// Snapshot returns a copy of all entries in no particular order.
func (t *PeerTable) Snapshot() []domain.PeerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.PeerEntry, 0, len(t.peers))
	for _, e := range t.peers {
		out = append(out, e)
	}
	return out
}

// Live implements ports.PeerReader.
func (t *PeerTable) Live() []domain.PeerEntry {
	return t.Snapshot()
}

// Len returns the current number of entries.
func (t *PeerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// EvictStale removes every entry whose LastSeen is older than the cutoff and
// returns how many were removed.
func (t *PeerTable) EvictStale(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for id, e := range t.peers {
		if e.LastSeen.Before(cutoff) {
			delete(t.peers, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.LivePeers.Set(float64(len(t.peers)))
	}
	return evicted
}

// Clear drops all entries. Called when the owning session ends.
func (t *PeerTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers = make(map[string]domain.PeerEntry)
	metrics.LivePeers.Set(0)
}
