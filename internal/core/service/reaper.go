package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/api/metrics"
)

// Reaper removes peer table entries not refreshed within the liveness window.
// Because the offline presence message is best effort, this sweep is the
// authoritative liveness signal for peers that stop publishing.
type Reaper struct {
	table  *PeerTable
	window time.Duration
	every  time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

func NewReaper(table *PeerTable, window, every time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{
		table:  table,
		window: window,
		every:  every,
		log:    log.With().Str("component", "reaper").Logger(),
		now:    time.Now,
	}
}

// Run sweeps on a fixed period until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts entries older than the liveness window and returns the count.
func (r *Reaper) Sweep() int {
	evicted := r.table.EvictStale(r.now().Add(-r.window))
	if evicted > 0 {
		metrics.ReaperEvictionsTotal.Add(float64(evicted))
		r.log.Debug().Int("evicted", evicted).Msg("stale peers removed")
	}
	return evicted
}
