package server

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one WebSocket connection bound to a seat (or -1 for a
// spectator). Packets travel as the textual wire format, one per message.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	seat   int
	name   string
	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, seat int, name string, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		seat:   seat,
		name:   name,
		logger: logger,
	}
}

// readPump reads packets from the connection and forwards them to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Int("seat", c.seat), zap.Error(err))
			}
			break
		}
		packet, err := protocol.Parse(string(message))
		if err != nil {
			// Malformed packets are the client's problem, not ours.
			c.logger.Warn("malformed packet", zap.Int("seat", c.seat), zap.Error(err))
			continue
		}
		c.hub.incoming <- incomingPacket{client: c, packet: packet}
	}
}

// writePump drains the send channel onto the connection with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendPacket queues a packet for delivery; a full buffer drops it.
func (c *Client) sendPacket(packet protocol.Packet) {
	select {
	case c.send <- []byte(packet.Marshal()):
	default:
		c.logger.Warn("send buffer full, dropping packet",
			zap.Int("seat", c.seat), zap.String("method", packet.Method))
	}
}

// incomingPacket pairs a parsed packet with its source connection.
type incomingPacket struct {
	client *Client
	packet protocol.Packet
}
