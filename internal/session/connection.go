package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/empiresrv/empireserver/pkg/duration"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// connection :
// One upgraded websocket, identified by the uid its auth_request bound
// it to (empty until then). Outbound messages are queued on `out` and
// drained by `writePump`; a full queue means a slow recipient, which
// `enqueue` drops rather than blocks on (spec.md §5 backpressure).
type connection struct {
	uid  string
	conn *websocket.Conn
	out  chan []byte
	log  logger.Logger

	config configuration

	connectedAt time.Time
	limiter     *rate.Limiter

	// dropped counts messages dropped for this connection because its
	// outbound queue was full.
	dropped int

	// throttled counts inbound requests rejected for exceeding
	// RequestsPerSecond/RequestBurst.
	throttled int
}

func newConnection(conn *websocket.Conn, config configuration, log logger.Logger) *connection {
	return &connection{
		conn:        conn,
		out:         make(chan []byte, config.SendBufferSize),
		log:         log,
		config:      config,
		connectedAt: time.Now(),
		limiter:     rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestBurst),
	}
}

// uptime reports how long this connection has been open, wrapped so
// it serializes as a human string ("1h2m3s") in userinfo_response
// instead of a raw nanosecond count.
func (c *connection) uptime() duration.Duration {
	return duration.NewDuration(time.Since(c.connectedAt))
}

// enqueue :
// Best-effort non-blocking send. Returns false (and increments
// `dropped`) if the outbound queue is already full.
func (c *connection) enqueue(payload []byte) bool {
	select {
	case c.out <- payload:
		return true
	default:
		c.dropped++
		return false
	}
}

// writePump :
// Drains `out` onto the underlying connection until `out` is closed
// (sending a close frame) or a write fails.
// Also sends periodic pings, matching the teacher's pattern of a
// dedicated goroutine per connection direction.
func (c *connection) writePump() {
	ticker := time.NewTicker(time.Duration(c.config.PingIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case payload, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(c.config.WriteTimeoutMs) * time.Millisecond))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(c.config.WriteTimeoutMs) * time.Millisecond))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump :
// Reads frames until the connection errors or closes, unmarshalling
// each as a generic envelope and handing it to `dispatch`. Runs on the
// caller's goroutine; `Serve` spawns one per accepted connection.
func (c *connection) readPump(dispatch func(c *connection, envelope map[string]interface{})) {
	defer close(c.out)

	for {
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(c.config.ReadTimeoutMs) * time.Millisecond))

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope map[string]interface{}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.enqueue(mustMarshal(errorResponse("", fmt.Sprintf("malformed frame: %v", err))))
			continue
		}

		if !c.limiter.Allow() {
			c.throttled++
			requestID, _ := envelope["request_id"].(string)
			c.enqueue(mustMarshal(errorResponse(requestID, "request rate exceeded")))
			continue
		}

		dispatch(c, envelope)
	}
}

func mustMarshal(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"type":"error","error":"internal marshal failure"}`)
	}
	return payload
}

func errorResponse(requestID, reason string) map[string]interface{} {
	out := map[string]interface{}{
		"type":  "error",
		"error": reason,
	}
	if requestID != "" {
		out["request_id"] = requestID
	}
	return out
}
