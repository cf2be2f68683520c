package core

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"moba/server/sync-service/internal/protocol"
	"moba/server/sync-service/internal/sim"
	"moba/server/sync-service/pkg/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingPeriod    = 30 * time.Second
)

// TicketValidator checks a room ticket before the websocket upgrade. Backed
// by redis in production; stubbed in tests.
type TicketValidator interface {
	ValidateRoomTicket(ctx context.Context, roomID, ticket string) (bool, error)
}

// WSHandler upgrades client connections and pumps their packets into a
// room. Dependencies are injected at construction.
type WSHandler struct {
	Manager *Manager
	Tickets TicketValidator
	Auth    config.AuthConfig
	Game    config.GameConfig

	nextEntityID atomic.Uint64
}

func NewWSHandler(m *Manager, tickets TicketValidator, auth config.AuthConfig, game config.GameConfig) *WSHandler {
	return &WSHandler{Manager: m, Tickets: tickets, Auth: auth, Game: game}
}

// Handle is the gin endpoint for GET /ws.
func (h *WSHandler) Handle(c *gin.Context) {
	roomID := c.Query("room_id")
	ticket := c.Query("ticket")
	token := c.Query("token")

	if roomID == "" || ticket == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id, ticket and token required"})
		return
	}

	// Validate the room ticket against redis before upgrading.
	if ok, err := h.Tickets.ValidateRoomTicket(c.Request.Context(), roomID, ticket); err != nil {
		log.Println("ticket validation error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	} else if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid room ticket"})
		return
	}

	uid, err := h.verifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	room := h.Manager.GetOrCreate(roomID)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("upgrade failed:", err)
		return
	}
	defer ws.Close()

	conn := NewWebSocketConn(ws, h.Game.PacketsPerSecond)
	entityID := EntityID(h.nextEntityID.Add(1))
	session := uuid.New().String()

	if err := room.Spawn(entityID, uid, sim.State{}); err != nil {
		log.Printf("spawn failed for uid %d: %v", uid, err)
		return
	}
	room.Subscribe(session, conn)

	// Teardown order matters: stop receiving snapshots, then tear the
	// entity down before the connection goes away.
	defer func() {
		room.Unsubscribe(session)
		if err := room.Despawn(entityID); err != nil {
			log.Printf("despawn %d: %v", entityID, err)
		}
	}()

	conn.Send(&protocol.Packet{
		Type: protocol.PacketWelcome,
		Welcome: &protocol.Welcome{
			EntityID:   uint64(entityID),
			ServerTime: room.Clock(),
			TickRate:   h.Game.TickRate,
		},
	})

	h.readLoop(ws, conn, room, entityID)
}

func (h *WSHandler) verifyToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(h.Auth.JWTSecret), nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid claims")
	}
	uidF, ok := claims["uid"].(float64)
	if !ok {
		return 0, errors.New("uid claim missing")
	}
	return int64(uidF), nil
}

func (h *WSHandler) readLoop(ws *websocket.Conn, conn *WebSocketConn, room *Room, entityID EntityID) {
	ws.SetReadDeadline(time.Now().Add(wsReadDeadline))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	messageChan := make(chan []byte)
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			select {
			case messageChan <- data:
			case <-doneChan:
				return
			}
		}
	}()

	for {
		select {
		case <-pingTicker.C:
			// Through the shared write lock: the broadcast loop may be
			// sending a snapshot on this connection right now.
			if err := conn.Ping(time.Now().Add(wsWriteDeadline)); err != nil {
				return
			}

		case data := <-messageChan:
			ws.SetReadDeadline(time.Now().Add(wsReadDeadline))

			if !conn.AllowInbound() {
				// Flooding client: drop the packet, keep the connection.
				continue
			}

			pkt, err := protocol.Decode(data)
			if err != nil {
				continue
			}
			if pkt.Type == protocol.PacketInputBatch && pkt.Inputs != nil {
				for _, sample := range pkt.Inputs.Entries {
					if err := room.ReceiveInput(entityID, sample); err != nil {
						return
					}
				}
			}

		case <-doneChan:
			return
		}
	}
}
