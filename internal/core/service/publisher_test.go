package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type publishedMessage struct {
	Topic    string
	Payload  []byte
	Retained bool
}

type stubBroker struct {
	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []publishedMessage
	subs       map[string]ports.MessageHandler
	connects   int
	lostFn     func(error)
}

func newStubBroker() *stubBroker {
	return &stubBroker{connected: true, subs: make(map[string]ports.MessageHandler)}
}

func (b *stubBroker) Connect(_ context.Context, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	b.connects++
	return nil
}

func (b *stubBroker) Disconnect(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	return nil
}

func (b *stubBroker) Publish(_ context.Context, topic string, payload []byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return domain.ErrNotConnected
	}
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, publishedMessage{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

func (b *stubBroker) Subscribe(_ context.Context, filter string, h ports.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[filter] = h
	return nil
}

func (b *stubBroker) Unsubscribe(_ context.Context, filter string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, filter)
	return nil
}

func (b *stubBroker) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *stubBroker) NotifyConnectionLost(fn func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lostFn = fn
}

func (b *stubBroker) publishedTopics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, p := range b.published {
		out = append(out, p.Topic)
	}
	return out
}

func (b *stubBroker) setConnected(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = v
}

type stubPosition struct {
	mu      sync.Mutex
	fix     *domain.Coordinates
	updates chan domain.Coordinates
}

func newStubPosition() *stubPosition {
	return &stubPosition{updates: make(chan domain.Coordinates, 1)}
}

func (s *stubPosition) set(pos domain.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fix = &pos
}

func (s *stubPosition) Current(_ context.Context) (domain.Coordinates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fix == nil {
		return domain.Coordinates{}, domain.ErrNoPositionFix
	}
	return *s.fix, nil
}

func (s *stubPosition) Updates() <-chan domain.Coordinates {
	return s.updates
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func newTestPublisher(broker *stubBroker, pos *stubPosition) *Publisher {
	p := NewPublisher(broker, pos, time.Hour, 70, zerolog.Nop())
	p.Bind(domain.Identity{UserID: "u1", DisplayName: "Alice"})
	return p
}

func TestPublisher_GuardSkipsWithoutIdentity(t *testing.T) {
	broker := newStubBroker()
	pos := newStubPosition()
	pos.set(domain.Coordinates{Latitude: 46.05, Longitude: 14.50})

	p := NewPublisher(broker, pos, time.Hour, 70, zerolog.Nop()) // no Bind

	p.PublishLocation(context.Background())
	if len(broker.publishedTopics()) != 0 {
		t.Error("publish must be guarded until identity is resolved")
	}
}

func TestPublisher_GuardSkipsWhileDisconnected(t *testing.T) {
	broker := newStubBroker()
	broker.setConnected(false)
	pos := newStubPosition()
	pos.set(domain.Coordinates{Latitude: 46.05, Longitude: 14.50})

	p := newTestPublisher(broker, pos)

	p.PublishLocation(context.Background())
	if len(broker.publishedTopics()) != 0 {
		t.Error("publish must be guarded while transport is down")
	}
}

func TestPublisher_GuardSkipsWithoutFix(t *testing.T) {
	broker := newStubBroker()
	p := newTestPublisher(broker, newStubPosition()) // no fix reported

	p.PublishLocation(context.Background())
	if len(broker.publishedTopics()) != 0 {
		t.Error("publish must be guarded until the first fix")
	}
}

func TestPublisher_PublishesRetainedLocation(t *testing.T) {
	broker := newStubBroker()
	pos := newStubPosition()
	pos.set(domain.Coordinates{Latitude: 46.05, Longitude: 14.50, Accuracy: 8})

	p := newTestPublisher(broker, pos)
	p.PublishLocation(context.Background())

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(broker.published))
	}
	got := broker.published[0]
	if got.Topic != "users/u1/location" {
		t.Errorf("unexpected topic: %s", got.Topic)
	}
	if !got.Retained {
		t.Error("location messages must be retained")
	}

	var msg domain.LocationMessage
	if err := json.Unmarshal(got.Payload, &msg); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if msg.UserID != "u1" || msg.Latitude != 46.05 || msg.Accuracy != 8 {
		t.Errorf("unexpected payload: %+v", msg)
	}
}

func TestPublisher_PublishFailureIsDroppedNotFatal(t *testing.T) {
	broker := newStubBroker()
	broker.publishErr = errors.New("broker rejected")
	pos := newStubPosition()
	pos.set(domain.Coordinates{Latitude: 46.05, Longitude: 14.50})

	p := newTestPublisher(broker, pos)
	p.PublishLocation(context.Background()) // must not panic or retry

	// A later trigger succeeds once the broker recovers.
	broker.publishErr = nil
	p.PublishLocation(context.Background())
	if len(broker.publishedTopics()) != 1 {
		t.Errorf("expected exactly the recovered publish, got %v", broker.publishedTopics())
	}
}

func TestPublisher_PresenceTopicsAndStatus(t *testing.T) {
	broker := newStubBroker()
	p := newTestPublisher(broker, newStubPosition())

	if err := p.PublishPresence(context.Background(), domain.StatusOnline); err != nil {
		t.Fatalf("online presence failed: %v", err)
	}
	if err := p.PublishPresence(context.Background(), domain.StatusOffline); err != nil {
		t.Fatalf("offline presence failed: %v", err)
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(broker.published))
	}
	for i, want := range []domain.PresenceStatus{domain.StatusOnline, domain.StatusOffline} {
		if broker.published[i].Topic != "users/u1/presence" {
			t.Errorf("unexpected topic: %s", broker.published[i].Topic)
		}
		if !broker.published[i].Retained {
			t.Error("presence messages must be retained")
		}
		var msg domain.PresenceMessage
		if err := json.Unmarshal(broker.published[i].Payload, &msg); err != nil {
			t.Fatalf("payload not valid JSON: %v", err)
		}
		if msg.Status != want {
			t.Errorf("expected status %s, got %s", want, msg.Status)
		}
	}
}

func TestPublisher_MovementTrigger(t *testing.T) {
	broker := newStubBroker()
	pos := newStubPosition()
	start := domain.Coordinates{Latitude: 46.0569, Longitude: 14.5058}
	pos.set(start)

	p := newTestPublisher(broker, pos)

	// First fix publishes unconditionally.
	if !p.movedEnough(start) {
		t.Fatal("first fix should always count as movement")
	}
	p.PublishLocation(context.Background())

	// ~20m away: below the 70m threshold.
	near := domain.Coordinates{Latitude: 46.05708, Longitude: 14.5058}
	if p.movedEnough(near) {
		t.Error("20m should be below the movement threshold")
	}

	// ~200m away: above the threshold.
	far := domain.Coordinates{Latitude: 46.0587, Longitude: 14.5058}
	if !p.movedEnough(far) {
		t.Error("200m should exceed the movement threshold")
	}
}
