// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
)

// PostgresStore keeps each room as a row with a jsonb players document.
// The admission predicate and mutation run in one UPDATE statement, so the
// row lock serializes concurrent joins without any application-level lock.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pgx pool and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const roomColumns = `id, players, game_status, current_turn, last_roll, max_players, created_at`

func (s *PostgresStore) CreateRoom(ctx context.Context, room *models.Room) error {
	playersJSON, err := json.Marshal(room.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	q := `
	INSERT INTO rooms (id, players, game_status, current_turn, last_roll, max_players, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			room.ID,
			playersJSON,
			string(room.GameStatus),
			room.CurrentTurn,
			room.LastRoll,
			room.MaxPlayers,
			room.CreatedAt,
		)
		return err
	})
}

func (s *PostgresStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	room, err := scanRoom(s.pool.QueryRow(ctx, q, roomID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// AddPlayerIfWaiting performs the admission in a single conditional update.
// The WHERE clause is the eligibility predicate; the CASE expression flips
// the room to playing when the appended player fills the last seat.
func (s *PostgresStore) AddPlayerIfWaiting(ctx context.Context, roomID string, p models.Player) (*models.Room, error) {
	playerJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal player: %w", err)
	}
	q := `
	UPDATE rooms
	SET players = players || $2::jsonb,
	    game_status = CASE
	        WHEN jsonb_array_length(players) + 1 >= max_players THEN 'playing'
	        ELSE game_status
	    END
	WHERE id = $1
	  AND game_status = 'waiting'
	  AND jsonb_array_length(players) < max_players
	RETURNING ` + roomColumns
	room, err := scanRoom(s.pool.QueryRow(ctx, q, roomID, playerJSON))
	if errors.Is(err, pgx.ErrNoRows) {
		// Predicate failed: room missing, not waiting, or full.
		return nil, nil
	}
	return room, err
}

func (s *PostgresStore) SetTurnState(ctx context.Context, roomID, currentTurn string, lastRoll int) (*models.Room, error) {
	q := `
	UPDATE rooms
	SET current_turn = $2, last_roll = $3
	WHERE id = $1 AND game_status = 'playing'
	RETURNING ` + roomColumns
	room, err := scanRoom(s.pool.QueryRow(ctx, q, roomID, currentTurn, lastRoll))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return room, err
}

func (s *PostgresStore) ListWaiting(ctx context.Context) ([]models.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE game_status = 'waiting' ORDER BY created_at`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteRoom(ctx context.Context, roomID string) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
		return err
	})
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	var playersJSON []byte
	var status string
	if err := row.Scan(&r.ID, &playersJSON, &status, &r.CurrentTurn, &r.LastRoll, &r.MaxPlayers, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(playersJSON, &r.Players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	r.GameStatus = models.GameStatus(status)
	return &r, nil
}
