package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/stakettt/internal/models"
)

const eventsSchema = `
	CREATE TABLE IF NOT EXISTS room_events (
		id       UUID PRIMARY KEY,
		type     TEXT NOT NULL,
		network  TEXT NOT NULL,
		room_id  TEXT NOT NULL,
		actor    TEXT,
		game_id  TEXT,
		at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS room_events_room_idx ON room_events (network, room_id, at);

	CREATE TABLE IF NOT EXISTS room_history (
		network     TEXT NOT NULL,
		room_id     TEXT NOT NULL,
		status      TEXT NOT NULL,
		status_rank INT NOT NULL,
		game_id     TEXT,
		updated_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (network, room_id)
	);
`

// EventWriter persists batches of room events for the historian.
type EventWriter struct {
	pool *pgxpool.Pool
}

func NewEventWriter(pool *pgxpool.Pool) *EventWriter {
	return &EventWriter{pool: pool}
}

// EnsureSchema creates room_events and room_history if they do not exist.
func (e *EventWriter) EnsureSchema(ctx context.Context) error {
	if _, err := e.pool.Exec(ctx, eventsSchema); err != nil {
		return fmt.Errorf("create room event tables: %w", err)
	}
	return nil
}

// WriteEvents inserts the batch in one transaction. Replayed events (same id) are ignored,
// and room_history only moves forward along waiting -> active -> closed.
func (e *EventWriter) WriteEvents(ctx context.Context, events []models.RoomEvent) error {
	return pgx.BeginTxFunc(ctx, e.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, ev := range events {
			if err := insertRoomEventTx(ctx, tx, ev); err != nil {
				return fmt.Errorf("insert event %s: %w", ev.ID, err)
			}
		}
		return nil
	})
}

func insertRoomEventTx(ctx context.Context, tx pgx.Tx, ev models.RoomEvent) error {
	at := time.UnixMilli(ev.At)
	tag, err := tx.Exec(ctx, `
		INSERT INTO room_events (id, type, network, room_id, actor, game_id, at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (id) DO NOTHING
	`, ev.ID, string(ev.Type), string(ev.Network), ev.RoomID, ev.Actor, ev.GameID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	status := StatusForEvent(ev.Type)
	if status == "" {
		return nil
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO room_history (network, room_id, status, status_rank, game_id, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (network, room_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			status_rank = EXCLUDED.status_rank,
			game_id = COALESCE(EXCLUDED.game_id, room_history.game_id),
			updated_at = EXCLUDED.updated_at
		WHERE room_history.status_rank <= EXCLUDED.status_rank
	`, string(ev.Network), ev.RoomID, string(status), status.Rank(), ev.GameID, at)
	return err
}

// StatusForEvent maps an event to the room status it implies ("" for unknown events).
func StatusForEvent(t models.RoomEventType) models.RoomStatus {
	switch t {
	case models.RoomCreated:
		return models.StatusWaiting
	case models.RoomActivated:
		return models.StatusActive
	case models.RoomDeleted:
		return models.StatusClosed
	}
	return ""
}
