package ports

import (
	"context"

	"github.com/fittrack/presence-system/internal/core/domain"
)

// PositionSource is the device-location collaborator. Current returns
// domain.ErrNoPositionFix until a first fix exists. Updates delivers
// movement notifications; the channel is never closed and slow readers may
// miss intermediate fixes (only the latest matters).
type PositionSource interface {
	Current(ctx context.Context) (domain.Coordinates, error)
	Updates() <-chan domain.Coordinates
}

// PositionSink accepts device fixes pushed in from the outside (the control
// API in this deployment).
type PositionSink interface {
	Report(pos domain.Coordinates)
}
