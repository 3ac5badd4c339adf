package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/api/metrics"
	"github.com/fittrack/presence-system/internal/core/domain"
)

// PeerFilter answers membership queries against the authorized peer set.
type PeerFilter interface {
	Contains(userID string) bool
}

// Subscriber consumes the all-peers location stream and maintains the peer
// table. Every inbound message runs the same pipeline: topic parse →
// self-filter → payload parse → authorization filter → upsert. Nothing in the
// pipeline may panic or return an error to the transport; malformed input is
// logged and dropped.
type Subscriber struct {
	filter PeerFilter
	table  *PeerTable
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	localID string
}

func NewSubscriber(filter PeerFilter, table *PeerTable, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		filter: filter,
		table:  table,
		log:    log.With().Str("component", "subscriber").Logger(),
		now:    time.Now,
	}
}

// Bind sets the local user so self-published messages can be discarded.
func (s *Subscriber) Bind(localUserID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localID = localUserID
}

// Process handles one inbound message. Implements ports.MessageProcessor.
func (s *Subscriber) Process(topic string, payload []byte) {
	metrics.MessagesReceivedTotal.Inc()

	// 1. Topic must be exactly users/<peerId>/location.
	peerID, ok := domain.PeerFromLocationTopic(topic)
	if !ok {
		metrics.MessagesDiscardedTotal.WithLabelValues("bad_topic").Inc()
		s.log.Debug().Str("topic", topic).Msg("unexpected topic shape, discarded")
		return
	}

	// 2. Never feed our own publishes back into the table.
	s.mu.RLock()
	localID := s.localID
	s.mu.RUnlock()
	if peerID == localID {
		metrics.MessagesDiscardedTotal.WithLabelValues("self").Inc()
		return
	}

	// 3. Parse the payload. A malformed message must never crash the
	// subscriber or touch the table.
	var msg domain.LocationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.MessagesDiscardedTotal.WithLabelValues("parse_error").Inc()
		s.log.Warn().Err(err).Str("topic", topic).Msg("malformed location payload, discarded")
		return
	}
	ts, err := time.Parse(domain.TimestampLayout, msg.Timestamp)
	if err != nil {
		metrics.MessagesDiscardedTotal.WithLabelValues("parse_error").Inc()
		s.log.Warn().Err(err).Str("topic", topic).Msg("unparseable timestamp, discarded")
		return
	}

	// 4. Only authorized peers reach the table. The filter is whatever set
	// was most recently fetched at the time of receipt.
	if !s.filter.Contains(peerID) {
		metrics.MessagesDiscardedTotal.WithLabelValues("unauthorized").Inc()
		s.log.Debug().Str("peer", peerID).Msg("location from unauthorized peer, discarded")
		return
	}

	// 5. Last write wins; LastSeen is local receipt time.
	s.table.Upsert(domain.PeerEntry{
		UserID:      peerID,
		DisplayName: msg.DisplayName,
		Latitude:    msg.Latitude,
		Longitude:   msg.Longitude,
		Timestamp:   ts,
		LastSeen:    s.now(),
	})
	metrics.PeerUpdatesTotal.Inc()
}
