package screen_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers may be embedded on other origins
	},
}

// HandleStreamWS is the WebSocket variant of HandleStream. Each message is
// written as one JSON text frame.
func HandleStreamWS(authority *accesscode.Authority, registry *screen.Registry, opts StreamOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := requireAccess(c, authority, opts); err != nil {
			return err
		}

		sink := screen.NewQueueSink(opts.QueueSize)
		id, err := registry.RegisterViewer(sink, viewerInfo(c, "ws"))
		if err != nil {
			return registerError(err)
		}
		defer registry.Unregister(id)

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Debug("websocket upgrade failed", "channel_id", id, "error", err)
			return nil
		}
		defer conn.Close()

		conn.SetReadLimit(maxInboundSize)

		// Read pump; viewers never send anything meaningful, so this only
		// notices the peer going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return nil
			case <-sink.Done():
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait),
				)
				return nil
			case msg := <-sink.Messages():
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					slog.Debug("viewer websocket write failed", "channel_id", id, "error", err)
					return nil
				}
			}
		}
	}
}
