package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fittrack/presence-system/internal/api/handler"
	"github.com/fittrack/presence-system/internal/api/middleware"
	"github.com/fittrack/presence-system/internal/core/ports"
)

// Deps bundles everything the control API surfaces.
type Deps struct {
	Mongo     *mongo.Database
	Broker    ports.Broker
	Peers     ports.PeerReader
	Positions ports.PositionSink
	Session   ports.SessionController
	JWTSecret string
	// LocalUserID resolves the session owner for the per-device guard.
	LocalUserID func() string
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("presence_http"))

	// --- Handlers ---
	peersHandler := handler.NewPeersHandler(d.Peers)
	positionHandler := handler.NewPositionHandler(d.Positions)
	sessionHandler := handler.NewSessionHandler(d.Session)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Broker)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Control API (session owner only) ---
	v1 := e.Group("/v1", middleware.Auth(d.JWTSecret), middleware.Owner(d.LocalUserID))
	v1.GET("/peers", peersHandler.Live)
	v1.POST("/position", positionHandler.Report)
	v1.GET("/session", sessionHandler.Status)
	v1.POST("/session/peers/refresh", sessionHandler.RefreshPeers)

	return e
}
