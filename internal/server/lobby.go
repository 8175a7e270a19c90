package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/game"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// MatchResult is what survives a finished match.
type MatchResult struct {
	RoomID      string
	PlayerCount int
	Winners     []string
	Turns       int
	Duration    time.Duration
	FinishedAt  time.Time
}

// MatchStore persists finished matches. The repository package implements
// it over postgres; a nil store skips persistence.
type MatchStore interface {
	SaveMatch(ctx context.Context, result MatchResult) error
}

// ReplayStore is an optional MatchStore extension that also persists the
// broadcast transcript alongside the result.
type ReplayStore interface {
	SaveReplay(ctx context.Context, roomID string, packets []protocol.Packet) error
}

// Lobby manages the live rooms and their hubs.
type Lobby struct {
	mu           sync.Mutex
	logger       *zap.Logger
	fallback     game.DecisionProvider
	recorder     *game.ReplayRecorder
	store        MatchStore
	operatorHash []byte

	rooms map[string]*game.Room
	hubs  map[string]*Hub
}

// NewLobby creates the lobby. recorder and store may be nil.
func NewLobby(fallback game.DecisionProvider, recorder *game.ReplayRecorder,
	store MatchStore, operatorHash []byte, logger *zap.Logger) *Lobby {
	return &Lobby{
		logger:       logger,
		fallback:     fallback,
		recorder:     recorder,
		store:        store,
		operatorHash: operatorHash,
		rooms:        make(map[string]*game.Room),
		hubs:         make(map[string]*Hub),
	}
}

// CreateRoom builds a room with its hub and starts the hub loop. The
// match itself starts with StartRoom once seats are filled.
func (l *Lobby) CreateRoom(cfg game.RoomConfig) (*game.Room, error) {
	room, err := game.NewRoom(cfg, l.fallback, l.logger)
	if err != nil {
		return nil, err
	}
	hub := NewHub(room, l.operatorHash, l.logger)
	if l.recorder != nil {
		room.AddSink(l.recorder.SinkFor(room.ID()))
	}

	l.mu.Lock()
	l.rooms[room.ID()] = room
	l.hubs[room.ID()] = hub
	l.mu.Unlock()

	go hub.Run()
	l.logger.Info("room created",
		zap.String("room_id", room.ID()), zap.Int("players", cfg.PlayerCount))
	return room, nil
}

// StartRoom launches the match on its own goroutine and persists the
// outcome when it ends.
func (l *Lobby) StartRoom(roomID string) error {
	l.mu.Lock()
	room, ok := l.rooms[roomID]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("server: no room %s", roomID)
	}

	started := time.Now()
	go func() {
		if err := room.Run(); err != nil {
			l.logger.Error("room run failed",
				zap.String("room_id", roomID), zap.Error(err))
			return
		}
		l.finishRoom(room, time.Since(started))
	}()
	return nil
}

func (l *Lobby) finishRoom(room *game.Room, elapsed time.Duration) {
	winners := make([]string, 0, 2)
	for _, role := range room.Winners() {
		winners = append(winners, role.String())
	}

	if l.store != nil {
		result := MatchResult{
			RoomID:      room.ID(),
			PlayerCount: room.Config().PlayerCount,
			Winners:     winners,
			Turns:       room.TurnNumber(),
			Duration:    elapsed,
			FinishedAt:  time.Now(),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := l.store.SaveMatch(ctx, result); err != nil {
			l.logger.Error("failed to persist match result",
				zap.String("room_id", room.ID()), zap.Error(err))
		} else if rs, ok := l.store.(ReplayStore); ok {
			if err := rs.SaveReplay(ctx, room.ID(), room.Transcript()); err != nil {
				l.logger.Error("failed to persist replay transcript",
					zap.String("room_id", room.ID()), zap.Error(err))
			}
		}
	}
	if l.recorder != nil {
		if err := l.recorder.SaveReplay(room.ID()); err != nil {
			l.logger.Error("failed to save replay",
				zap.String("room_id", room.ID()), zap.Error(err))
		}
	}

	l.mu.Lock()
	if hub, ok := l.hubs[room.ID()]; ok {
		hub.Close()
		delete(l.hubs, room.ID())
	}
	delete(l.rooms, room.ID())
	l.mu.Unlock()
}

// Room returns a live room by ID.
func (l *Lobby) Room(roomID string) (*game.Room, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	room, ok := l.rooms[roomID]
	return room, ok
}

// Hub returns the hub of a live room.
func (l *Lobby) Hub(roomID string) (*Hub, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hub, ok := l.hubs[roomID]
	return hub, ok
}

// RoomIDs lists the live rooms.
func (l *Lobby) RoomIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.rooms))
	for id := range l.rooms {
		ids = append(ids, id)
	}
	return ids
}
