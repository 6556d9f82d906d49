package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/stream"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

func handleWebsocketConn(logger *log.Logger, hub *stream.Hub) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(hub)

	return func(c echo.Context) error {
		logger.Debug("upgrading to websocket connection")

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			logger.Error(err)
			return err
		}
		defer conn.Close()

		id := hub.Connect(WriterFunc(func(data []byte) (n int, err error) {
			return len(data), conn.WriteMessage(websocket.TextMessage, data)
		}))
		defer hub.Disconnect(id)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Debug("ws read", "err", err, "id", id)
				break
			}

			// A bad message is reported back rather than dropping the
			// spectator.
			if err = hub.Message(id, msg); err != nil {
				logger.Debug("spectator message", "id", id, "err", err)
				if serr := hub.Send(id, "error", errorPayload(err)); serr != nil {
					break
				}
			}
		}

		return nil
	}
}

type WriterFunc func(data []byte) (n int, err error)

func (f WriterFunc) Write(data []byte) (n int, err error) {
	return f(data)
}
