package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fittrack/presence-system/internal/core/ports"
)

// PeersHandler serves the live peer snapshot to the rendering layer.
type PeersHandler struct {
	peers ports.PeerReader
}

func NewPeersHandler(peers ports.PeerReader) *PeersHandler {
	return &PeersHandler{peers: peers}
}

// Live handles GET /v1/peers, the current peer table snapshot. Always
// non-blocking; safe to poll at map-redraw cadence.
//
// @Summary      Live peer positions
// @Tags         peers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  peersResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/peers [get]
func (h *PeersHandler) Live(c echo.Context) error {
	snapshot := h.peers.Live()
	return c.JSON(http.StatusOK, peersResponse{
		Peers: snapshot,
		Count: len(snapshot),
	})
}
