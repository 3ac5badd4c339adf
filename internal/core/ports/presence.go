package ports

import (
	"context"

	"github.com/fittrack/presence-system/internal/core/domain"
)

// PeerReader is the pull-based snapshot consumed by rendering collaborators.
// Safe to call at any cadence; never blocks on broker traffic.
type PeerReader interface {
	Live() []domain.PeerEntry
}

// InboundMessage is one message as received from the broker, before any
// parsing or filtering.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// MessageProcessor consumes one inbound broker message. The dispatcher routes
// messages from the broker reader to a processor on its worker goroutines.
type MessageProcessor interface {
	Process(topic string, payload []byte)
}

// SessionStatus is the observable state of the presence session.
type SessionStatus struct {
	Identity  domain.Identity `json:"identity"`
	Connected bool            `json:"connected"`
	Running   bool            `json:"running"`
	LivePeers int             `json:"live_peers"`
	AuthPeers int             `json:"authorized_peers"`
}

// SessionController is the lifecycle surface exposed to the embedding
// application.
type SessionController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// RefreshPeers refetches the authorized peer set. Called by the embedding
	// app when a relationship changes (e.g. a friend request is accepted).
	RefreshPeers(ctx context.Context) error
	Status() SessionStatus
}
