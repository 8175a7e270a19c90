// Package repository persists finished matches and replay transcripts to
// PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/protocol"
	"github.com/qsanguosha/sgs-server-go/internal/server"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id           BIGSERIAL PRIMARY KEY,
	room_id      TEXT NOT NULL UNIQUE,
	player_count INT NOT NULL,
	winners      TEXT[] NOT NULL,
	turns        INT NOT NULL,
	duration_ms  BIGINT NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS replays (
	room_id  TEXT PRIMARY KEY REFERENCES matches(room_id),
	lines    TEXT[] NOT NULL
);
`

// Store wraps a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to the database and ensures the schema.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("repository: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ensure schema: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveMatch implements server.MatchStore.
func (s *Store) SaveMatch(ctx context.Context, result server.MatchResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matches (room_id, player_count, winners, turns, duration_ms, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (room_id) DO NOTHING`,
		result.RoomID, result.PlayerCount, result.Winners, result.Turns,
		result.Duration.Milliseconds(), result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: save match: %w", err)
	}
	s.logger.Info("match persisted",
		zap.String("room_id", result.RoomID),
		zap.Strings("winners", result.Winners),
		zap.Int("turns", result.Turns),
	)
	return nil
}

// SaveReplay stores a transcript as one wire line per packet.
func (s *Store) SaveReplay(ctx context.Context, roomID string, packets []protocol.Packet) error {
	lines := make([]string, len(packets))
	for i, p := range packets {
		lines[i] = p.Marshal()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO replays (room_id, lines) VALUES ($1, $2)
		 ON CONFLICT (room_id) DO UPDATE SET lines = EXCLUDED.lines`,
		roomID, lines,
	)
	if err != nil {
		return fmt.Errorf("repository: save replay: %w", err)
	}
	return nil
}

// LoadReplay reads a stored transcript back into packets.
func (s *Store) LoadReplay(ctx context.Context, roomID string) ([]protocol.Packet, error) {
	var lines []string
	err := s.pool.QueryRow(ctx,
		`SELECT lines FROM replays WHERE room_id = $1`, roomID,
	).Scan(&lines)
	if err != nil {
		return nil, fmt.Errorf("repository: load replay: %w", err)
	}
	packets := make([]protocol.Packet, 0, len(lines))
	for _, line := range lines {
		packet, err := protocol.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("repository: corrupt replay line: %w", err)
		}
		packets = append(packets, packet)
	}
	return packets, nil
}
