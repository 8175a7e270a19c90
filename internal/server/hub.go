package server

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/qsanguosha/sgs-server-go/internal/game"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// Hub owns the connections of one room. It feeds the room's broadcasts to
// the sockets (game.NotificationSink) and turns decision requests into
// wire packets with a reply rendezvous per seat (game.DecisionProvider
// via seatProvider). The room itself runs on its own goroutine; the hub
// never touches room state directly beyond the documented entry points.
type Hub struct {
	mu      sync.Mutex
	room    *game.Room
	logger  *zap.Logger
	clients map[int]*Client // seat -> connection; spectators keyed from -2 down

	// operator password hash for kick/abandon; empty disables them
	operatorHash []byte

	register   chan *Client
	unregister chan *Client
	incoming   chan incomingPacket
	quit       chan struct{}

	pending   map[int]chan game.Reply // seat -> reply rendezvous
	abandoned bool

	nextSpectator int
}

// NewHub wires a hub for a room. Call Run on its own goroutine.
func NewHub(room *game.Room, operatorHash []byte, logger *zap.Logger) *Hub {
	h := &Hub{
		room:          room,
		logger:        logger,
		clients:       make(map[int]*Client),
		operatorHash:  operatorHash,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		incoming:      make(chan incomingPacket, 256),
		quit:          make(chan struct{}),
		pending:       make(map[int]chan game.Reply),
		nextSpectator: -2,
	}
	room.AddSink(h)
	for seat := 0; seat < room.Config().PlayerCount; seat++ {
		room.SetProvider(seat, &seatProvider{hub: h, seat: seat})
		h.pending[seat] = make(chan game.Reply, 1)
	}
	return h
}

// Run is the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			key := client.seat
			if key < 0 {
				key = h.nextSpectator
				h.nextSpectator--
			} else if old, ok := h.clients[key]; ok {
				close(old.send)
			}
			h.clients[key] = client
			h.mu.Unlock()
			if client.seat >= 0 {
				h.room.SetNetState(client.seat, game.NetOnline)
			}
			h.sendView(client)

		case client := <-h.unregister:
			h.mu.Lock()
			for key, c := range h.clients {
				if c == client {
					delete(h.clients, key)
					close(client.send)
					break
				}
			}
			h.mu.Unlock()
			if client.seat >= 0 {
				h.room.SetNetState(client.seat, game.NetOffline)
			}

		case msg := <-h.incoming:
			h.handlePacket(msg)

		case <-h.quit:
			return
		}
	}
}

// Close stops the event loop.
func (h *Hub) Close() {
	close(h.quit)
}

// OnNotify implements game.NotificationSink: broadcasts fan out to every
// connection, per-seat packets reach only their seat.
func (h *Hub) OnNotify(seat int, packet protocol.Packet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seat == -1 {
		for _, c := range h.clients {
			c.sendPacket(packet)
		}
		return
	}
	if c, ok := h.clients[seat]; ok {
		c.sendPacket(packet)
	}
}

// sendView delivers the reconnect snapshot to a (re)joining client.
func (h *Hub) sendView(client *Client) {
	view := h.room.ViewFor(client.seat)
	client.sendPacket(protocol.Packet{
		Method: protocol.MethodSetup,
		Args: []string{
			view.RoomID,
			strconv.Itoa(len(view.Players)),
			view.State,
			view.Phase,
			strconv.Itoa(view.ActiveSeat),
		},
	})
}

// handlePacket routes one client packet.
func (h *Hub) handlePacket(msg incomingPacket) {
	switch msg.packet.Method {
	case protocol.MethodReply:
		h.handleReply(msg)
	case protocol.MethodTrust:
		if msg.client.seat >= 0 {
			h.room.SetNetState(msg.client.seat, game.NetTrust)
		}
	case protocol.MethodUntrust:
		if msg.client.seat >= 0 {
			h.room.SetNetState(msg.client.seat, game.NetOnline)
		}
	case protocol.MethodKick:
		h.handleKick(msg)
	case protocol.MethodAbandon:
		h.handleAbandon(msg)
	default:
		h.logger.Warn("unknown client method",
			zap.Int("seat", msg.client.seat), zap.String("method", msg.packet.Method))
	}
}

// handleReply parses "reply command answer cardIDs targets" and hands it
// to the seat's rendezvous. Stale and duplicate replies are dropped.
func (h *Hub) handleReply(msg incomingPacket) {
	seat := msg.client.seat
	if seat < 0 || len(msg.packet.Args) < 2 {
		return
	}
	reply := game.Reply{
		Seat:    seat,
		Command: msg.packet.Args[0],
		Answer:  msg.packet.Args[1],
	}
	if len(msg.packet.Args) > 2 {
		if ids, err := protocol.ParseIntList(msg.packet.Args[2]); err == nil {
			reply.CardIDs = ids
		}
	}
	if len(msg.packet.Args) > 3 {
		if targets, err := protocol.ParseIntList(msg.packet.Args[3]); err == nil {
			reply.Targets = targets
		}
	}

	h.mu.Lock()
	ch := h.pending[seat]
	h.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- reply:
	default:
		h.logger.Warn("dropping duplicate reply",
			zap.Int("seat", seat), zap.String("command", reply.Command))
	}
}

// handleKick demotes a seat to trust mode. Operator only.
func (h *Hub) handleKick(msg incomingPacket) {
	if len(msg.packet.Args) < 2 || !h.operatorAllowed(msg.packet.Args[0]) {
		h.logger.Warn("rejected kick", zap.Int("seat", msg.client.seat))
		return
	}
	seat, err := strconv.Atoi(msg.packet.Args[1])
	if err != nil {
		return
	}
	h.room.SetNetState(seat, game.NetTrust)
	h.logger.Info("seat kicked to trust", zap.Int("seat", seat))
}

// handleAbandon marks the room abandoned; every seat falls to trust and
// the match plays itself out.
func (h *Hub) handleAbandon(msg incomingPacket) {
	if len(msg.packet.Args) < 1 || !h.operatorAllowed(msg.packet.Args[0]) {
		h.logger.Warn("rejected abandon", zap.Int("seat", msg.client.seat))
		return
	}
	h.mu.Lock()
	h.abandoned = true
	h.mu.Unlock()
	for seat := 0; seat < h.room.Config().PlayerCount; seat++ {
		h.room.SetNetState(seat, game.NetTrust)
	}
	h.logger.Info("room abandoned", zap.String("room_id", h.room.ID()))
}

func (h *Hub) operatorAllowed(password string) bool {
	if len(h.operatorHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(h.operatorHash, []byte(password)) == nil
}

// seatProvider bridges the room's synchronous ask to the wire: send a
// request packet, wait for the matching reply or the countdown.
type seatProvider struct {
	hub  *Hub
	seat int
}

// Decide implements game.DecisionProvider.
func (sp *seatProvider) Decide(ctx context.Context, req game.Request) (game.Reply, bool) {
	h := sp.hub

	h.mu.Lock()
	ch := h.pending[sp.seat]
	// Drain a stale reply from an earlier, expired request.
	select {
	case <-ch:
	default:
	}
	client := h.clients[sp.seat]
	h.mu.Unlock()
	if client == nil {
		return game.Reply{}, false
	}

	options := strings.Join(req.Options, ",")
	client.sendPacket(protocol.Packet{
		Method: protocol.MethodRequest,
		Args: []string{
			req.ID,
			req.Command,
			req.Prompt,
			options,
			protocol.FormatIntList(req.CardIDs),
			strconv.Itoa(int(req.Timeout.Seconds())),
		},
	})

	for {
		select {
		case reply := <-ch:
			if reply.Command != req.Command {
				// A stale reply from a previous request; keep waiting.
				continue
			}
			return reply, true
		case <-ctx.Done():
			return game.Reply{}, false
		}
	}
}
