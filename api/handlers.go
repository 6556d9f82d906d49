package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tifye/crossroads/assert"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorPayload(err error) []byte {
	data, merr := json.Marshal(errorResponse{Error: err.Error()})
	assert.Assert(merr == nil, "marshal error payload")
	return data
}

// withSnapshot answers 503 until the first frame has been published or
// after the latest one expired.
func withSnapshot(store *SnapshotStore, f func(c echo.Context, snap Snapshot) error) echo.HandlerFunc {
	assert.AssertNotNil(store)
	return func(c echo.Context) error {
		snap, ok := store.Latest()
		if !ok {
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: ErrNoSnapshot.Error()})
		}
		return f(c, snap)
	}
}

func handleGetStats(store *SnapshotStore) echo.HandlerFunc {
	return withSnapshot(store, func(c echo.Context, snap Snapshot) error {
		return c.JSON(http.StatusOK, snap.Frame.Stats)
	})
}

func handleGetLights(store *SnapshotStore) echo.HandlerFunc {
	return withSnapshot(store, func(c echo.Context, snap Snapshot) error {
		return c.JSON(http.StatusOK, snap.Frame.Lights)
	})
}

func handleGetCars(store *SnapshotStore) echo.HandlerFunc {
	return withSnapshot(store, func(c echo.Context, snap Snapshot) error {
		return c.JSON(http.StatusOK, snap.Cars)
	})
}

func handleGetFrame(store *SnapshotStore) echo.HandlerFunc {
	return withSnapshot(store, func(c echo.Context, snap Snapshot) error {
		if c.QueryParam("format") == "json" {
			return c.JSON(http.StatusOK, snap)
		}
		return c.String(http.StatusOK, snap.Grid+"\n"+snap.Status+"\n")
	})
}
