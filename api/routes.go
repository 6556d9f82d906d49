package api

import (
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Passcode guesses allowed per client per second.
const tokenRate = rate.Limit(0.2)

func registerRoutes(e *echo.Echo, logger *log.Logger, deps *ServerDependencies) {
	e.GET("/stats", handleGetStats(deps.Snapshots))
	e.GET("/lights", handleGetLights(deps.Snapshots))
	e.GET("/cars", handleGetCars(deps.Snapshots))
	e.GET("/frame", handleGetFrame(deps.Snapshots))
	e.GET("/ws", handleWebsocketConn(logger.WithPrefix("ws"), deps.Hub))

	if deps.Spawner == nil || !deps.Auth.Enabled() {
		logger.Debug("control routes disabled")
		return
	}

	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{Rate: tokenRate, Burst: 3},
	))
	e.POST("/auth/token", handlePostToken(logger, deps.Auth), limiter)

	control := e.Group("/control", requireAuthMiddleware(logger, deps.Auth))
	control.POST("/spawn/:direction", handlePostSpawn(logger, deps.Spawner))
}
