package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/sim"
)

// Spawner queues extra cars into a running simulation.
type Spawner interface {
	RequestSpawn(d sim.Direction) bool
}

func handlePostSpawn(logger *log.Logger, spawner Spawner) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(spawner)
	return func(c echo.Context) error {
		d, err := sim.ParseDirection(c.Param("direction"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}

		if !spawner.RequestSpawn(d) {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "spawn queue full"})
		}

		logger.Info("spawn requested", "direction", d)
		return c.NoContent(http.StatusAccepted)
	}
}
