package domain

import (
	"fmt"
	"strings"
	"time"
)

// PresenceStatus is the advertised liveness of a user on its presence topic.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// Topic layout. One topic pair per user; only the owning identity publishes to
// its own topics. LocationFilter is the single-level wildcard covering every
// peer's location topic.
const (
	topicPrefix     = "users"
	locationSegment = "location"
	presenceSegment = "presence"
	LocationFilter  = "users/+/location"
	TimestampLayout = time.RFC3339
)

// LocationTopic returns the location topic owned by userID.
func LocationTopic(userID string) string {
	return fmt.Sprintf("%s/%s/%s", topicPrefix, userID, locationSegment)
}

// PresenceTopic returns the presence topic owned by userID.
func PresenceTopic(userID string) string {
	return fmt.Sprintf("%s/%s/%s", topicPrefix, userID, presenceSegment)
}

// PeerFromLocationTopic extracts the publishing user from a location topic.
// Only the exact 3-segment users/<id>/location shape is accepted; anything
// else reports ok=false and must be discarded by the caller.
func PeerFromLocationTopic(topic string) (userID string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != topicPrefix || parts[2] != locationSegment || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Coordinates is a geographic point with an optional horizontal accuracy
// estimate in meters (zero when the device did not report one).
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// LocationMessage is the wire payload published on users/{userId}/location.
// Retained, QoS 0: the broker keeps only the last one per user and makes no
// delivery guarantee. Field names are the de facto contract shared with every
// client on the bus.
type LocationMessage struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timestamp   string  `json:"timestamp"`
	Accuracy    float64 `json:"accuracy,omitempty"`
}

// PresenceMessage is the wire payload published on users/{userId}/presence.
// The offline message is best effort: it is not sent on abnormal termination,
// so consumers must treat staleness expiry as the authoritative liveness
// signal rather than this status field alone.
type PresenceMessage struct {
	UserID      string         `json:"userId"`
	DisplayName string         `json:"displayName"`
	Status      PresenceStatus `json:"status"`
	Timestamp   string         `json:"timestamp"`
}

// NewLocationMessage builds the wire message for the local identity's current fix.
func NewLocationMessage(id Identity, pos Coordinates, at time.Time) LocationMessage {
	return LocationMessage{
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		Latitude:    pos.Latitude,
		Longitude:   pos.Longitude,
		Timestamp:   at.UTC().Format(TimestampLayout),
		Accuracy:    pos.Accuracy,
	}
}

// NewPresenceMessage builds the wire message announcing the local identity's status.
func NewPresenceMessage(id Identity, status PresenceStatus, at time.Time) PresenceMessage {
	return PresenceMessage{
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		Status:      status,
		Timestamp:   at.UTC().Format(TimestampLayout),
	}
}
