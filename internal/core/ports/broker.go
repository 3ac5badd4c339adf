package ports

import "context"

// MessageHandler receives every inbound message matching an active
// subscription. Handlers must not block: the broker adapter calls them from
// its reader goroutine.
type MessageHandler func(topic string, payload []byte)

// Broker is the transport adapter contract: one long-lived pub/sub connection
// to a message broker. Implementations carry no business state. Delivery is at
// most once; retained messages replace the previous retained message on the
// same topic and are replayed to new subscribers. Topic filters use
// single-level wildcard semantics (users/+/location).
//
// Subscriptions do not survive a reconnect. After a connection-lost
// notification the owning session must reconnect, re-issue its subscriptions,
// and republish its retained presence.
type Broker interface {
	// Connect establishes the connection. clientID must be unique per active
	// session to avoid broker-side session collisions.
	Connect(ctx context.Context, clientID string) error
	Disconnect(ctx context.Context) error

	// Publish is fire-and-forget: a nil error means the broker accepted the
	// message, nothing more.
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error

	Subscribe(ctx context.Context, filter string, h MessageHandler) error
	Unsubscribe(ctx context.Context, filter string) error

	Connected() bool

	// NotifyConnectionLost registers the callback invoked once per transport
	// drop. The adapter does not reconnect on its own.
	NotifyConnectionLost(fn func(err error))
}
