package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

func packetN(n int) protocol.Packet {
	return protocol.Packet{Method: protocol.MethodCardMoved, Args: []string{string(rune('a' + n))}}
}

func TestReplayCursor(t *testing.T) {
	replay := NewReplay("room-1")
	for i := 0; i < 5; i++ {
		replay.Record(packetN(i))
	}
	require.Equal(t, 5, replay.Size())

	replay.Start()
	first, ok := replay.Next()
	require.True(t, ok)
	assert.Equal(t, packetN(0), first)

	second, ok := replay.Next()
	require.True(t, ok)
	assert.Equal(t, packetN(1), second)

	back, ok := replay.Previous()
	require.True(t, ok)
	assert.Equal(t, packetN(1), back)

	jumped, ok := replay.Skip(3)
	require.True(t, ok)
	assert.Equal(t, packetN(4), jumped)

	// Skip clamps at both ends.
	clamped, ok := replay.Skip(100)
	require.True(t, ok)
	assert.Equal(t, packetN(4), clamped)
	clamped, ok = replay.Skip(-100)
	require.True(t, ok)
	assert.Equal(t, packetN(0), clamped)

	at, ok := replay.PacketAt(3)
	require.True(t, ok)
	assert.Equal(t, packetN(3), at)
	_, ok = replay.PacketAt(5)
	assert.False(t, ok)
}

func TestReplayNextPastEnd(t *testing.T) {
	replay := NewReplay("room-2")
	replay.Record(packetN(0))

	_, ok := replay.Next()
	require.True(t, ok)
	_, ok = replay.Next()
	assert.False(t, ok)

	_, ok = NewReplay("empty").Previous()
	assert.False(t, ok)
}

func TestReplaySaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()

	replay := NewReplay("room-3")
	for i := 0; i < 8; i++ {
		replay.Record(packetN(i))
	}
	require.NoError(t, replay.SaveToFile(dir))

	loaded, err := LoadReplayFromFile(dir, "room-3")
	require.NoError(t, err)
	assert.Equal(t, "room-3", loaded.RoomID)
	assert.Equal(t, replay.Packets, loaded.Packets)

	_, err = LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

func TestReplayRecorderSink(t *testing.T) {
	dir := t.TempDir()
	recorder := NewReplayRecorder(nil, dir)

	sink := recorder.SinkFor("room-4")
	sink.OnNotify(-1, packetN(0))
	sink.OnNotify(2, packetN(1)) // per-seat packets stay private
	sink.OnNotify(-1, packetN(2))

	replay, ok := recorder.Replay("room-4")
	require.True(t, ok)
	assert.Equal(t, 2, replay.Size())

	require.NoError(t, recorder.SaveReplay("room-4"))
	_, ok = recorder.Replay("room-4")
	assert.False(t, ok, "saving drops the in-memory replay")

	loaded, err := recorder.LoadReplay("room-4")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())

	assert.Error(t, recorder.SaveReplay("room-4"))
}

func TestRoomTranscriptFeedsRecorder(t *testing.T) {
	r := newTestRoom(t, 2, 21)
	recorder := NewReplayRecorder(nil, t.TempDir())
	r.AddSink(recorder.SinkFor(r.ID()))
	r.cfg.MaxTurns = 1

	require.NoError(t, r.Run())

	replay, ok := recorder.Replay(r.ID())
	require.True(t, ok)
	assert.Equal(t, len(r.Transcript()), replay.Size())
}
