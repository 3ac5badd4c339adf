package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/api/metrics"
	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

// Publisher pushes the local user's retained location and presence messages.
// Locations go out on the earlier of a fixed interval or a movement trigger.
// A publish needs three preconditions at once (transport connected, identity
// bound, a position fix) and re-checks all of them on every trigger, because
// any of the three can become false mid-session. Failed publishes are logged
// and dropped; the next trigger supersedes them.
type Publisher struct {
	broker        ports.Broker
	position      ports.PositionSource
	interval      time.Duration
	moveThreshold float64
	log           zerolog.Logger
	now           func() time.Time

	mu            sync.Mutex
	identity      domain.Identity
	lastPublished *domain.Coordinates
}

func NewPublisher(
	broker ports.Broker,
	position ports.PositionSource,
	interval time.Duration,
	moveThresholdM float64,
	log zerolog.Logger,
) *Publisher {
	return &Publisher{
		broker:        broker,
		position:      position,
		interval:      interval,
		moveThreshold: moveThresholdM,
		log:           log.With().Str("component", "publisher").Logger(),
		now:           time.Now,
	}
}

// Bind sets the identity the publisher speaks for.
func (p *Publisher) Bind(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = id
}

// Run drives the recurring location publishes until ctx is cancelled. The
// interval ticker fires unconditionally; position updates additionally
// trigger a publish when the device moved more than the threshold since the
// last published fix.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PublishLocation(ctx)
		case fix := <-p.position.Updates():
			if p.movedEnough(fix) {
				p.PublishLocation(ctx)
			}
		}
	}
}

// PublishLocation fetches the current fix and publishes a retained location
// message. All failures are non-fatal: the guard simply isn't met yet, or the
// broker rejected the message and the next trigger will retry naturally.
func (p *Publisher) PublishLocation(ctx context.Context) {
	p.mu.Lock()
	id := p.identity
	p.mu.Unlock()

	// Guard: connected ∧ identity ∧ fix, checked on every trigger.
	if id.Zero() {
		p.log.Debug().Msg("location publish skipped: identity not resolved")
		return
	}
	if !p.broker.Connected() {
		p.log.Debug().Msg("location publish skipped: transport not connected")
		return
	}
	pos, err := p.position.Current(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("location publish skipped: no position fix")
		return
	}

	msg := domain.NewLocationMessage(id, pos, p.now())
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error().Err(err).Msg("location message marshal failed")
		return
	}

	if err := p.broker.Publish(ctx, domain.LocationTopic(id.UserID), payload, true); err != nil {
		metrics.PublishErrorsTotal.WithLabelValues("location").Inc()
		p.log.Warn().Err(err).Msg("location publish failed, dropped")
		return
	}
	metrics.PublishesTotal.WithLabelValues("location").Inc()

	p.mu.Lock()
	p.lastPublished = &pos
	p.mu.Unlock()

	p.log.Debug().
		Float64("lat", pos.Latitude).
		Float64("lng", pos.Longitude).
		Msg("location published")
}

// PublishPresence publishes a retained online/offline presence message.
func (p *Publisher) PublishPresence(ctx context.Context, status domain.PresenceStatus) error {
	p.mu.Lock()
	id := p.identity
	p.mu.Unlock()

	if id.Zero() {
		return domain.ErrNotAuthenticated
	}

	msg := domain.NewPresenceMessage(id, status, p.now())
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("presence message marshal: %w", err)
	}

	kind := "presence_" + string(status)
	if err := p.broker.Publish(ctx, domain.PresenceTopic(id.UserID), payload, true); err != nil {
		metrics.PublishErrorsTotal.WithLabelValues(kind).Inc()
		return fmt.Errorf("presence publish: %w", err)
	}
	metrics.PublishesTotal.WithLabelValues(kind).Inc()

	p.log.Info().Str("status", string(status)).Msg("presence published")
	return nil
}

// movedEnough reports whether the fix is at least the movement threshold away
// from the last published position. A fix before any publish always counts.
func (p *Publisher) movedEnough(fix domain.Coordinates) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastPublished == nil {
		return true
	}
	return domain.DistanceMeters(*p.lastPublished, fix) > p.moveThreshold
}
