package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fittrack/presence-system/internal/core/ports"
)

// SessionHandler exposes the presence session state and triggers.
type SessionHandler struct {
	session ports.SessionController
}

func NewSessionHandler(session ports.SessionController) *SessionHandler {
	return &SessionHandler{session: session}
}

// Status handles GET /v1/session.
//
// @Summary      Presence session status
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.SessionStatus
// @Failure      401  {object}  errorResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Status())
}

// RefreshPeers handles POST /v1/session/peers/refresh. The embedding app
// calls this after a relationship change (friend request accepted or removed)
// so the authorization filter picks up the new set.
//
// @Summary      Refetch the authorized peer set
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  acceptedResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/session/peers/refresh [post]
func (h *SessionHandler) RefreshPeers(c echo.Context) error {
	if err := h.session.RefreshPeers(c.Request().Context()); err != nil {
		// The last good set stays in effect; surface the fetch failure so the
		// caller can retry.
		return echo.NewHTTPError(http.StatusBadGateway, "peer set refresh failed")
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "peer set refreshed"})
}
