package screen_api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/starfederation/datastar-go/datastar"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
)

const (
	// sseEventType is the default EventSource event, delivered to onmessage.
	sseEventType = datastar.EventType("message")

	// reconnectDelay is the retry hint sent to EventSource clients.
	reconnectDelay = 3 * time.Second
)

// HandleStream opens a server-sent event stream for one viewer. The viewer
// stays registered until the client goes away or the registry evicts it.
func HandleStream(authority *accesscode.Authority, registry *screen.Registry, opts StreamOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := requireAccess(c, authority, opts); err != nil {
			return err
		}

		// Registration only queues the initial messages, so capacity errors
		// can still be reported as a plain HTTP status.
		sink := screen.NewQueueSink(opts.QueueSize)
		id, err := registry.RegisterViewer(sink, viewerInfo(c, "sse"))
		if err != nil {
			return registerError(err)
		}
		defer registry.Unregister(id)

		common.SetSSEHeaders(c)
		rc := http.NewResponseController(c.Response().Writer)
		if err := extendWriteDeadline(rc); err != nil {
			slog.Debug("viewer stream deadline unavailable", "channel_id", id, "error", err)
		}
		sse := datastar.NewSSE(c.Response(), c.Request())

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sink.Done():
				return nil
			case msg := <-sink.Messages():
				// A stalled peer fails the write instead of pinning
				// this goroutine after the registry has dropped it.
				if err := extendWriteDeadline(rc); err != nil {
					slog.Debug("viewer stream deadline failed", "channel_id", id, "error", err)
					return nil
				}
				if err := writeEvent(sse, msg); err != nil {
					slog.Debug("viewer stream write failed", "channel_id", id, "error", err)
					return nil
				}
			}
		}
	}
}

// extendWriteDeadline gives the next write writeWait to complete. Writers
// without deadline support are left as they are.
func extendWriteDeadline(rc *http.ResponseController) error {
	err := rc.SetWriteDeadline(time.Now().Add(writeWait))
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}

func writeEvent(sse *datastar.ServerSentEventGenerator, msg screen.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return sse.Send(sseEventType, []string{string(data)}, datastar.WithSSERetryDuration(reconnectDelay))
}
