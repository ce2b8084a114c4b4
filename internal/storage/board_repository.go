package storage

import (
	"context"
	"database/sql"
)

// BoardRepository stores the admin-group roster board message per event.
// The board is display only; nothing is ever read back from the message.
type BoardRepository struct {
	queue *DBQueue
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(queue *DBQueue) *BoardRepository {
	return &BoardRepository{queue: queue}
}

// Get returns the board message ID for an event, or 0 when none exists
func (r *BoardRepository) Get(ctx context.Context, eventID string) (int, error) {
	var messageID int
	err := r.queue.Execute(func(db *sql.DB) error {
		err := db.QueryRowContext(ctx,
			`SELECT message_id FROM board_messages WHERE event_id = ?`,
			eventID,
		).Scan(&messageID)
		if err == sql.ErrNoRows {
			messageID = 0
			return nil
		}
		return err
	})
	return messageID, err
}

// Set stores the board message ID for an event
func (r *BoardRepository) Set(ctx context.Context, eventID string, messageID int) error {
	return r.queue.Execute(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO board_messages (event_id, message_id)
			VALUES (?, ?)
			ON CONFLICT(event_id) DO UPDATE SET message_id = excluded.message_id
		`, eventID, messageID)
		return err
	})
}
