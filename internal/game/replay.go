package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// Replay is a recorded match: the ordered broadcast transcript plus a
// playback cursor. Feeding the packets to a client in order reproduces
// every public state transition of the original match.
type Replay struct {
	RoomID       string
	Packets      []protocol.Packet
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay for a room.
func NewReplay(roomID string) *Replay {
	return &Replay{
		RoomID:  roomID,
		Packets: make([]protocol.Packet, 0),
	}
}

// Record appends one broadcast packet.
func (r *Replay) Record(packet protocol.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Packets = append(r.Packets, packet)
}

// Start resets playback to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the packet under the cursor and advances, or false at the
// end of the transcript.
func (r *Replay) Next() (protocol.Packet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Packets) {
		packet := r.Packets[r.CurrentIndex]
		r.CurrentIndex++
		return packet, true
	}
	return protocol.Packet{}, false
}

// Previous steps the cursor back and returns the packet it lands on.
func (r *Replay) Previous() (protocol.Packet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Packets[r.CurrentIndex], true
	}
	return protocol.Packet{}, false
}

// Skip moves the cursor forward (or back, for negative counts) by the
// given number of packets, clamped to the transcript bounds.
func (r *Replay) Skip(count int) (protocol.Packet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.Packets) {
		newIndex = len(r.Packets) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.Packets) {
		return r.Packets[r.CurrentIndex], true
	}
	return protocol.Packet{}, false
}

// Size returns the number of recorded packets.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Packets)
}

// PacketAt returns the packet at an index.
func (r *Replay) PacketAt(index int) (protocol.Packet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Packets) {
		return r.Packets[index], true
	}
	return protocol.Packet{}, false
}

// SaveToFile writes the replay to <directory>/<roomID>.replay as a
// gzipped gob stream: metadata first, then each packet.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.RoomID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		RoomID:      r.RoomID,
		Timestamp:   time.Now(),
		Version:     1,
		PacketCount: len(r.Packets),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i, packet := range r.Packets {
		if err := encoder.Encode(&packet); err != nil {
			return fmt.Errorf("failed to encode packet %d: %w", i, err)
		}
	}

	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, roomID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", roomID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.RoomID)
	for i := 0; i < metadata.PacketCount; i++ {
		var packet protocol.Packet
		if err := decoder.Decode(&packet); err != nil {
			return nil, fmt.Errorf("failed to decode packet %d: %w", i, err)
		}
		replay.Packets = append(replay.Packets, packet)
	}

	return replay, nil
}

type replayMetadata struct {
	RoomID      string
	Timestamp   time.Time
	Version     int
	PacketCount int
}

// ReplayRecorder collects transcripts for running rooms and persists them
// on demand. It implements NotificationSink; only broadcast packets
// (seat -1) are recorded, per-seat packets carry private information.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves under saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// SinkFor returns a NotificationSink recording the given room.
func (rr *ReplayRecorder) SinkFor(roomID string) NotificationSink {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	replay, ok := rr.replays[roomID]
	if !ok {
		replay = NewReplay(roomID)
		rr.replays[roomID] = replay
	}
	return recorderSink{replay: replay}
}

type recorderSink struct {
	replay *Replay
}

func (s recorderSink) OnNotify(seat int, packet protocol.Packet) {
	if seat == -1 {
		s.replay.Record(packet)
	}
}

// Replay returns the in-memory replay for a room.
func (rr *ReplayRecorder) Replay(roomID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[roomID]
	return replay, exists
}

// SaveReplay persists a room's replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(roomID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[roomID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for room %s", roomID)
	}
	delete(rr.replays, roomID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("room_id", roomID),
			zap.Int("packet_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}

	return nil
}

// LoadReplay loads a saved replay from disk.
func (rr *ReplayRecorder) LoadReplay(roomID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, roomID)
	if err != nil {
		return nil, err
	}
	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("room_id", roomID),
			zap.Int("packet_count", replay.Size()),
		)
	}
	return replay, nil
}
