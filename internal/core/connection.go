package core

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"moba/server/sync-service/internal/protocol"
)

// WebSocketConn wraps a gorilla connection with a write lock and an inbound
// packet rate limiter. WriteMessage is not safe for concurrent use, so every
// send goes through the mutex.
type WebSocketConn struct {
	Conn    *websocket.Conn
	mu      sync.Mutex
	limiter *rate.Limiter
}

func NewWebSocketConn(conn *websocket.Conn, packetsPerSecond int) *WebSocketConn {
	return &WebSocketConn{
		Conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(packetsPerSecond), packetsPerSecond),
	}
}

// Send encodes and writes one packet as a binary frame. Failures are logged
// and dropped; a dead connection is detected by the read loop, not here.
func (c *WebSocketConn) Send(pkt *protocol.Packet) {
	data, err := protocol.Encode(pkt)
	if err != nil {
		log.Printf("conn: encode failed: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		log.Printf("conn: write failed: %v", err)
	}
}

// Ping writes a ping control frame under the same lock as data frames.
// Control frames race data frames otherwise; gorilla panics on concurrent
// writers.
func (c *WebSocketConn) Ping(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Conn.SetWriteDeadline(deadline)
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}

// SendSnapshot implements SnapshotSink.
func (c *WebSocketConn) SendSnapshot(snap *protocol.StateSnapshot) {
	c.Send(&protocol.Packet{Type: protocol.PacketSnapshot, Snapshot: snap})
}

// AllowInbound reports whether another inbound packet fits under the
// per-connection rate limit. Flooding clients get their packets dropped,
// not their connection closed.
func (c *WebSocketConn) AllowInbound() bool {
	return c.limiter.Allow()
}
