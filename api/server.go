package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/stream"
)

type ServerDependencies struct {
	Snapshots *SnapshotStore
	Hub       *stream.Hub
	// Spawner and Auth are optional. The control routes are only
	// registered when both are present.
	Spawner Spawner
	Auth    AuthConfig
}

func NewServer(logger *log.Logger, deps *ServerDependencies) *http.Server {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(deps)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	server := &http.Server{
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       25 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		ErrorLog:          logger.StandardLog(),
		MaxHeaderBytes:    1024,
	}

	registerRoutes(e, logger, deps)

	return server
}
