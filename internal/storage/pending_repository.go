package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/chillchat/community-bot/internal/domain"
)

// PendingRepository handles submitted registrations awaiting a decision
type PendingRepository struct {
	queue *DBQueue
}

// NewPendingRepository creates a new PendingRepository
func NewPendingRepository(queue *DBQueue) *PendingRepository {
	return &PendingRepository{queue: queue}
}

// Create stores a pending registration. At most one may exist per
// (applicant, event) pair; a duplicate returns ErrAlreadyPending.
func (r *PendingRepository) Create(ctx context.Context, pending *domain.PendingRegistration) error {
	if pending.SubmittedAt.IsZero() {
		pending.SubmittedAt = time.Now()
	}

	return r.queue.Execute(func(db *sql.DB) error {
		var exists int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pending_registrations WHERE event_id = ? AND chat_id = ?`,
			pending.EventID, pending.ChatID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return domain.ErrAlreadyPending
		}

		_, err = db.ExecContext(ctx,
			`INSERT INTO pending_registrations (event_id, chat_id, username, name, phone, gender, age, level, note, admin_message_id, submitted_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pending.EventID, pending.ChatID, pending.Username, pending.Name, pending.Phone,
			string(pending.Gender), pending.Age, string(pending.Level), pending.Note,
			pending.AdminMessageID, pending.SubmittedAt,
		)
		return err
	})
}

// SetAdminMessageID records the admin-group message for a pending registration
func (r *PendingRepository) SetAdminMessageID(ctx context.Context, eventID string, chatID int64, messageID int) error {
	return r.queue.Execute(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`UPDATE pending_registrations SET admin_message_id = ? WHERE event_id = ? AND chat_id = ?`,
			messageID, eventID, chatID,
		)
		return err
	})
}

// Take atomically removes and returns a pending registration. A second
// Take for the same pair returns ErrPendingNotFound, which makes racing
// decisions idempotent.
func (r *PendingRepository) Take(ctx context.Context, eventID string, chatID int64) (*domain.PendingRegistration, error) {
	var pending domain.PendingRegistration
	var gender, level string

	err := r.queue.Execute(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		err = tx.QueryRowContext(ctx,
			`SELECT event_id, chat_id, username, name, phone, gender, age, level, note, admin_message_id, submitted_at
			 FROM pending_registrations WHERE event_id = ? AND chat_id = ?`,
			eventID, chatID,
		).Scan(
			&pending.EventID, &pending.ChatID, &pending.Username, &pending.Name, &pending.Phone,
			&gender, &pending.Age, &level, &pending.Note,
			&pending.AdminMessageID, &pending.SubmittedAt,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrPendingNotFound
			}
			return err
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM pending_registrations WHERE event_id = ? AND chat_id = ?`,
			eventID, chatID,
		)
		if err != nil {
			return err
		}

		return tx.Commit()
	})

	if err != nil {
		return nil, err
	}

	pending.Gender = domain.Gender(gender)
	pending.Level = domain.Level(level)
	return &pending, nil
}

// Exists reports whether a pending registration exists for the pair
func (r *PendingRepository) Exists(ctx context.Context, eventID string, chatID int64) (bool, error) {
	var count int
	err := r.queue.Execute(func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pending_registrations WHERE event_id = ? AND chat_id = ?`,
			eventID, chatID,
		).Scan(&count)
	})
	return count > 0, err
}

// List returns all pending registrations, oldest first. Used on startup
// to re-arm auto-approval timers.
func (r *PendingRepository) List(ctx context.Context) ([]*domain.PendingRegistration, error) {
	var pendings []*domain.PendingRegistration

	err := r.queue.Execute(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT event_id, chat_id, username, name, phone, gender, age, level, note, admin_message_id, submitted_at
			 FROM pending_registrations ORDER BY submitted_at`,
		)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var pending domain.PendingRegistration
			var gender, level string
			if err := rows.Scan(
				&pending.EventID, &pending.ChatID, &pending.Username, &pending.Name, &pending.Phone,
				&gender, &pending.Age, &level, &pending.Note,
				&pending.AdminMessageID, &pending.SubmittedAt,
			); err != nil {
				return err
			}
			pending.Gender = domain.Gender(gender)
			pending.Level = domain.Level(level)
			pendings = append(pendings, &pending)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return pendings, nil
}
