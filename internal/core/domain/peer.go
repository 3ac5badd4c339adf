package domain

import "time"

// PeerEntry is one row of the in-memory peer table: the last known position of
// an authorized peer. LastSeen is the local receipt time (monotonic via
// time.Now), not the publisher's own timestamp, and drives staleness expiry.
type PeerEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	LastSeen    time.Time `json:"last_seen"`
}
