package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

// PositionHandler ingests device GPS fixes from the mobile shell.
type PositionHandler struct {
	sink ports.PositionSink
}

func NewPositionHandler(sink ports.PositionSink) *PositionHandler {
	return &PositionHandler{sink: sink}
}

// Report handles POST /v1/position. It stores the latest device fix and lets
// the movement trigger decide whether it warrants a publish.
//
// @Summary      Report a device GPS fix
// @Tags         position
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      positionRequest  true  "Device fix"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/position [post]
func (h *PositionHandler) Report(c echo.Context) error {
	var req positionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	h.sink.Report(domain.Coordinates{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	})
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "position accepted"})
}
