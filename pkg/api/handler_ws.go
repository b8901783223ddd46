package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"

	"github.com/synapse-hq/synapse/pkg/events"
)

// wsClientMessage is a frame sent by the streaming client. The only
// recognized type is "cancel"; everything else is ignored.
type wsClientMessage struct {
	Type string `json:"type"`
}

// executionWSHandler handles GET /ws/executions/:execution_id. It forwards
// every bus event for the run to the client and accepts cancel requests,
// until the run publishes its terminal workflow_completed event or the
// client disconnects — whichever comes first.
func (s *Server) executionWSHandler(c *echo.Context) error {
	executionID := c.Param("execution_id")
	if executionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "execution id is required")
	}

	// Subscribe before the upgrade so events published during the handshake
	// are not lost.
	sub, err := s.bus.Subscribe(c.Request().Context(), events.ExecutionChannel(executionID))
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event bus unavailable")
	}
	defer sub.Close()

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	slog.Info("WebSocket connected", "execution_id", executionID)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Forwarder: bus → client, until workflow_completed.
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		s.forwardExecutionEvents(ctx, conn, sub)
	}()

	// Listener: client → cancel registry, until disconnect.
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		s.listenForClientMessages(ctx, conn, executionID)
	}()

	// First to finish wins; cancel tears down the other.
	select {
	case <-forwardDone:
	case <-listenDone:
	}
	cancel()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	slog.Info("WebSocket disconnected", "execution_id", executionID)
	return nil
}

// forwardExecutionEvents writes each bus message to the client verbatim.
// Returns when the terminal workflow_completed event has been forwarded,
// the subscription closes, or the connection dies.
func (s *Server) forwardExecutionEvents(ctx context.Context, conn *websocket.Conn, sub events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}

			// Decode defensively: a malformed message is forwarded but never
			// terminates the stream.
			var event struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(payload, &event); err != nil {
				continue
			}
			if event.Type == events.EventTypeWorkflowCompleted {
				return
			}
		}
	}
}

// listenForClientMessages reads client frames and flags cancellation
// requests. Malformed frames are ignored; a read error means disconnect.
func (s *Server) listenForClientMessages(ctx context.Context, conn *websocket.Conn, executionID string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "cancel" {
			s.cancels.Request(executionID)
			slog.Info("Execution cancelled by client", "execution_id", executionID)
		}
	}
}
