// Package position provides the device-location source. The Go agent has no
// GPS of its own; the mobile shell pushes fixes in through the control API and
// this package holds the latest one.
package position

import (
	"context"
	"sync"

	"github.com/fittrack/presence-system/internal/core/domain"
)

// ManualSource implements ports.PositionSource and ports.PositionSink. The
// updates channel holds at most one pending fix: if the publisher has not
// drained the previous notification yet, it is replaced by the newer one.
type ManualSource struct {
	mu      sync.RWMutex
	fix     *domain.Coordinates
	updates chan domain.Coordinates
}

func NewManualSource() *ManualSource {
	return &ManualSource{updates: make(chan domain.Coordinates, 1)}
}

// Report stores a new device fix and notifies the updates channel.
func (s *ManualSource) Report(pos domain.Coordinates) {
	s.mu.Lock()
	s.fix = &pos
	s.mu.Unlock()

	// Replace a stale pending notification rather than blocking.
	select {
	case s.updates <- pos:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- pos:
		default:
		}
	}
}

// Current returns the latest fix, or domain.ErrNoPositionFix before the first
// report.
func (s *ManualSource) Current(_ context.Context) (domain.Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fix == nil {
		return domain.Coordinates{}, domain.ErrNoPositionFix
	}
	return *s.fix, nil
}

// Updates returns the movement notification channel.
func (s *ManualSource) Updates() <-chan domain.Coordinates {
	return s.updates
}
