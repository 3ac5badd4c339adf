package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/api/metrics"
	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

// SessionConfig carries the presence tunables the session needs. None of them
// is correctness-critical; defaults are applied for zero values.
type SessionConfig struct {
	PublishInterval     time.Duration
	MovementThresholdM  float64
	LivenessWindow      time.Duration
	ReapInterval        time.Duration
	PeerRefreshInterval time.Duration
	ConnectTimeout      time.Duration
	ReconnectMinDelay   time.Duration
	ReconnectMaxDelay   time.Duration
}

func (c *SessionConfig) applyDefaults() {
	if c.PublishInterval <= 0 {
		c.PublishInterval = 5 * time.Minute
	}
	if c.MovementThresholdM <= 0 {
		c.MovementThresholdM = 70
	}
	if c.LivenessWindow <= 0 {
		c.LivenessWindow = 5 * time.Minute
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = 90 * time.Second
	}
	if c.PeerRefreshInterval <= 0 {
		c.PeerRefreshInterval = 10 * time.Minute
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReconnectMinDelay <= 0 {
		c.ReconnectMinDelay = time.Second
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
}

// Session is the explicitly constructed owner of the whole presence pipeline:
// transport, publisher, subscriber, reaper, and peer table. There is no
// ambient global state; everything lives and dies with Start and Stop.
//
// On a transport drop the session reconnects with capped exponential backoff,
// re-issues the location subscription, and republishes the retained online
// presence. Messages lost in between simply go stale and expire.
type Session struct {
	cfg        SessionConfig
	broker     ports.Broker
	identity   ports.IdentityProvider
	authorizer *Authorizer
	publisher  *Publisher
	subscriber *Subscriber
	reaper     *Reaper
	table      *PeerTable
	inbound    ports.MessageHandler
	log        zerolog.Logger

	mu      sync.Mutex
	localID domain.Identity
	running bool
	cancel  context.CancelFunc
	runCtx  context.Context
}

// NewSession wires the pipeline. inbound is the handler the location
// subscription delivers into (normally the dispatcher feeding the subscriber).
func NewSession(
	cfg SessionConfig,
	broker ports.Broker,
	identity ports.IdentityProvider,
	authorizer *Authorizer,
	publisher *Publisher,
	subscriber *Subscriber,
	reaper *Reaper,
	table *PeerTable,
	inbound ports.MessageHandler,
	log zerolog.Logger,
) *Session {
	cfg.applyDefaults()
	return &Session{
		cfg:        cfg,
		broker:     broker,
		identity:   identity,
		authorizer: authorizer,
		publisher:  publisher,
		subscriber: subscriber,
		reaper:     reaper,
		table:      table,
		inbound:    inbound,
		log:        log.With().Str("component", "session").Logger(),
	}
}

// Start resolves the identity, fetches the initial peer set, connects the
// transport, subscribes to the all-peers location filter, announces online
// presence, and launches the periodic publish, reap, and peer-refresh loops.
// A missing identity is fatal; an initial peer-set fetch failure is not (the
// filter starts empty and the background refresh keeps trying).
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	id, err := s.identity.LocalIdentity(ctx)
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}

	s.authorizer.Bind(id.UserID)
	s.publisher.Bind(id)
	s.subscriber.Bind(id.UserID)

	if err := s.authorizer.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial peer set fetch failed, starting with empty set")
	}

	// Register the drop callback before connecting so an early failure still
	// reaches the reconnect path.
	s.broker.NotifyConnectionLost(s.onConnectionLost)

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	if err := s.broker.Connect(connectCtx, clientID(id.UserID)); err != nil {
		return fmt.Errorf("session start: broker connect: %w", err)
	}

	if err := s.broker.Subscribe(ctx, domain.LocationFilter, s.inbound); err != nil {
		_ = s.broker.Disconnect(ctx)
		return fmt.Errorf("session start: subscribe: %w", err)
	}

	if err := s.publisher.PublishPresence(ctx, domain.StatusOnline); err != nil {
		s.log.Warn().Err(err).Msg("online presence publish failed")
	}

	runCtx, cancelRun := context.WithCancel(context.Background())

	s.mu.Lock()
	s.localID = id
	s.running = true
	s.cancel = cancelRun
	s.runCtx = runCtx
	s.mu.Unlock()

	go s.publisher.Run(runCtx)
	go s.reaper.Run(runCtx)
	go s.authorizer.Run(runCtx, s.cfg.PeerRefreshInterval)

	s.log.Info().
		Str("user_id", id.UserID).
		Str("display_name", id.DisplayName).
		Msg("presence session started")
	return nil
}

// Stop cancels the periodic loops, announces offline presence, drops the
// subscription, clears the peer table, and disconnects the transport. A
// failed offline publish is logged and does not abort the teardown.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	if err := s.publisher.PublishPresence(ctx, domain.StatusOffline); err != nil {
		s.log.Warn().Err(err).Msg("offline presence publish failed")
	}
	if err := s.broker.Unsubscribe(ctx, domain.LocationFilter); err != nil {
		s.log.Warn().Err(err).Msg("unsubscribe failed")
	}
	s.table.Clear()
	if err := s.broker.Disconnect(ctx); err != nil {
		s.log.Warn().Err(err).Msg("broker disconnect failed")
	}

	s.log.Info().Msg("presence session stopped")
	return nil
}

// RefreshPeers refetches the authorized set. Exposed to the embedding app as
// the relationship-change trigger.
func (s *Session) RefreshPeers(ctx context.Context) error {
	return s.authorizer.Refresh(ctx)
}

// Status returns the observable session state.
func (s *Session) Status() ports.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ports.SessionStatus{
		Identity:  s.localID,
		Connected: s.broker.Connected(),
		Running:   s.running,
		LivePeers: s.table.Len(),
		AuthPeers: s.authorizer.Len(),
	}
}

// onConnectionLost runs the reconnect loop. Existing peer table entries are
// left alone: updates missed while disconnected simply let them go stale.
func (s *Session) onConnectionLost(err error) {
	s.mu.Lock()
	running := s.running
	runCtx := s.runCtx
	userID := s.localID.UserID
	s.mu.Unlock()

	if !running {
		return
	}
	s.log.Warn().Err(err).Msg("broker connection lost, reconnecting")

	go s.reconnect(runCtx, userID)
}

func (s *Session) reconnect(ctx context.Context, userID string) {
	delay := s.cfg.ReconnectMinDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		connectCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		err := s.broker.Connect(connectCtx, clientID(userID))
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
			delay *= 2
			if delay > s.cfg.ReconnectMaxDelay {
				delay = s.cfg.ReconnectMaxDelay
			}
			continue
		}

		// Subscriptions do not survive a reconnect; re-issue and republish
		// the retained online presence.
		if err := s.broker.Subscribe(ctx, domain.LocationFilter, s.inbound); err != nil {
			s.log.Error().Err(err).Msg("resubscribe after reconnect failed")
			delay = s.cfg.ReconnectMinDelay
			continue
		}
		if err := s.publisher.PublishPresence(ctx, domain.StatusOnline); err != nil {
			s.log.Warn().Err(err).Msg("online presence republish failed")
		}

		metrics.ReconnectsTotal.Inc()
		s.log.Info().Int("attempt", attempt).Msg("broker reconnected")
		return
	}
}

// clientID builds a broker client identifier unique per active session:
// the user, a millisecond timestamp, and random bits.
func clientID(userID string) string {
	return fmt.Sprintf("user_%s_%d_%s", userID, time.Now().UnixMilli(), uuid.NewString()[:8])
}
