package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/ai"
	"github.com/qsanguosha/sgs-server-go/internal/game"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

type memoryStore struct {
	mu      sync.Mutex
	results []MatchResult
	replays map[string][]protocol.Packet
}

func (s *memoryStore) SaveMatch(_ context.Context, result MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *memoryStore) SaveReplay(_ context.Context, roomID string, packets []protocol.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replays == nil {
		s.replays = make(map[string][]protocol.Packet)
	}
	s.replays[roomID] = packets
	return nil
}

func (s *memoryStore) saved() []MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MatchResult(nil), s.results...)
}

func TestLobbyRoomLifecycle(t *testing.T) {
	store := &memoryStore{}
	recorder := game.NewReplayRecorder(zap.NewNop(), t.TempDir())
	lobby := NewLobby(ai.NewDefaultProvider(nil), recorder, store, nil, zap.NewNop())

	room, err := lobby.CreateRoom(game.RoomConfig{
		PlayerCount: 3,
		Seed:        11,
		MaxTurns:    2,
	})
	require.NoError(t, err)
	assert.Contains(t, lobby.RoomIDs(), room.ID())

	require.NoError(t, lobby.StartRoom(room.ID()))

	// With no connected seats every decision falls to the default
	// provider, so the match runs out its turn cap on its own.
	require.Eventually(t, func() bool {
		_, live := lobby.Room(room.ID())
		return !live
	}, 5*time.Second, 10*time.Millisecond)

	results := store.saved()
	require.Len(t, results, 1)
	assert.Equal(t, room.ID(), results[0].RoomID)
	assert.Equal(t, 3, results[0].PlayerCount)
	assert.Equal(t, 2, results[0].Turns)

	replay, err := recorder.LoadReplay(room.ID())
	require.NoError(t, err)
	assert.NotZero(t, replay.Size())
	assert.Len(t, store.replays[room.ID()], replay.Size())

	_, live := lobby.Hub(room.ID())
	assert.False(t, live)
}

func TestLobbyStartUnknownRoom(t *testing.T) {
	lobby := NewLobby(ai.NewDefaultProvider(nil), nil, nil, nil, zap.NewNop())
	assert.Error(t, lobby.StartRoom("no-such-room"))
}

func TestLobbyRejectsBadConfig(t *testing.T) {
	lobby := NewLobby(ai.NewDefaultProvider(nil), nil, nil, nil, zap.NewNop())
	_, err := lobby.CreateRoom(game.RoomConfig{PlayerCount: 1})
	assert.Error(t, err)
}
