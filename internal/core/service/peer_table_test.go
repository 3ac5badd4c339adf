package service

import (
	"testing"
	"time"

	"github.com/fittrack/presence-system/internal/core/domain"
)

func entryAt(userID string, lastSeen time.Time) domain.PeerEntry {
	return domain.PeerEntry{
		UserID:      userID,
		DisplayName: userID,
		Latitude:    46.05,
		Longitude:   14.50,
		Timestamp:   lastSeen,
		LastSeen:    lastSeen,
	}
}

func TestPeerTable_UpsertOverwrites(t *testing.T) {
	table := NewPeerTable()
	now := time.Now()

	table.Upsert(entryAt("u2", now))
	e := entryAt("u2", now.Add(time.Minute))
	e.Latitude = 46.06
	table.Upsert(e)

	snapshot := table.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snapshot))
	}
	if snapshot[0].Latitude != 46.06 {
		t.Errorf("expected last write to win, got lat %f", snapshot[0].Latitude)
	}
}

func TestPeerTable_SnapshotIsACopy(t *testing.T) {
	table := NewPeerTable()
	table.Upsert(entryAt("u2", time.Now()))

	snapshot := table.Snapshot()
	snapshot[0].UserID = "mutated"

	if table.Snapshot()[0].UserID != "u2" {
		t.Error("snapshot mutation leaked into the table")
	}
}

func TestPeerTable_EvictStaleBoundary(t *testing.T) {
	table := NewPeerTable()
	window := 5 * time.Minute
	t0 := time.Now()

	table.Upsert(entryAt("u2", t0))

	// Sweep at t0 + W - ε: cutoff is before LastSeen, entry survives.
	sweepAt := t0.Add(window - time.Second)
	if evicted := table.EvictStale(sweepAt.Add(-window)); evicted != 0 {
		t.Fatalf("entry evicted inside liveness window")
	}
	if table.Len() != 1 {
		t.Fatalf("expected entry to survive, table has %d", table.Len())
	}

	// Sweep at t0 + W + ε: entry goes.
	sweepAt = t0.Add(window + time.Second)
	if evicted := table.EvictStale(sweepAt.Add(-window)); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d entries", table.Len())
	}
}

func TestPeerTable_Clear(t *testing.T) {
	table := NewPeerTable()
	table.Upsert(entryAt("u2", time.Now()))
	table.Upsert(entryAt("u3", time.Now()))

	table.Clear()
	if table.Len() != 0 {
		t.Errorf("expected empty table after clear, got %d", table.Len())
	}
}
