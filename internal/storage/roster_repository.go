package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/chillchat/community-bot/internal/domain"
)

// RosterRepository handles approved roster entries
type RosterRepository struct {
	queue *DBQueue
}

// NewRosterRepository creates a new RosterRepository
func NewRosterRepository(queue *DBQueue) *RosterRepository {
	return &RosterRepository{queue: queue}
}

// AppendIfAllowed appends a roster entry after re-checking the event
// capacity and gender sub-limit inside a single transaction. The whole
// check-then-insert runs on the single-writer queue, so a manual decision
// racing the auto-approval timer can never overbook the event.
func (r *RosterRepository) AppendIfAllowed(ctx context.Context, event *domain.Event, entry *domain.RosterEntry) error {
	return r.queue.Execute(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM roster_entries WHERE event_id = ? AND chat_id = ?`,
			entry.EventID, entry.ChatID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return domain.ErrAlreadyRegistered
		}

		if !event.Unlimited() {
			var total int
			err = tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM roster_entries WHERE event_id = ?`,
				entry.EventID,
			).Scan(&total)
			if err != nil {
				return err
			}
			if total >= event.Capacity {
				return domain.ErrEventFull
			}
		}

		if cap := event.GenderCap(entry.Gender); cap >= 0 {
			var count int
			err = tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM roster_entries WHERE event_id = ? AND gender = ?`,
				entry.EventID, string(entry.Gender),
			).Scan(&count)
			if err != nil {
				return err
			}
			if count >= cap {
				return domain.ErrGenderCapReached
			}
		}

		if entry.ApprovedAt.IsZero() {
			entry.ApprovedAt = time.Now()
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO roster_entries (event_id, chat_id, username, name, phone, gender, age, level, note, ticket_code, approved_by, approved_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.EventID, entry.ChatID, entry.Username, entry.Name, entry.Phone,
			string(entry.Gender), entry.Age, string(entry.Level), entry.Note,
			entry.TicketCode, entry.ApprovedBy, entry.ApprovedAt,
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		entry.ID = id

		return tx.Commit()
	})
}

// ApprovedCount returns the number of approved registrants for an event
func (r *RosterRepository) ApprovedCount(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.queue.Execute(func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM roster_entries WHERE event_id = ?`,
			eventID,
		).Scan(&count)
	})
	return count, err
}

// GenderCount returns the number of approved registrants of a gender
func (r *RosterRepository) GenderCount(ctx context.Context, eventID string, gender domain.Gender) (int, error) {
	var count int
	err := r.queue.Execute(func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM roster_entries WHERE event_id = ? AND gender = ?`,
			eventID, string(gender),
		).Scan(&count)
	})
	return count, err
}

// GetByEvent returns the roster for an event in approval order
func (r *RosterRepository) GetByEvent(ctx context.Context, eventID string) ([]*domain.RosterEntry, error) {
	var entries []*domain.RosterEntry

	err := r.queue.Execute(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT id, event_id, chat_id, username, name, phone, gender, age, level, note, ticket_code, approved_by, approved_at
			 FROM roster_entries WHERE event_id = ? ORDER BY approved_at, id`,
			eventID,
		)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var entry domain.RosterEntry
			var gender, level string
			if err := rows.Scan(
				&entry.ID, &entry.EventID, &entry.ChatID, &entry.Username, &entry.Name,
				&entry.Phone, &gender, &entry.Age, &level, &entry.Note,
				&entry.TicketCode, &entry.ApprovedBy, &entry.ApprovedAt,
			); err != nil {
				return err
			}
			entry.Gender = domain.Gender(gender)
			entry.Level = domain.Level(level)
			entries = append(entries, &entry)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns the roster entry for an applicant on an event, or nil
func (r *RosterRepository) Get(ctx context.Context, eventID string, chatID int64) (*domain.RosterEntry, error) {
	var entry domain.RosterEntry
	var gender, level string

	err := r.queue.Execute(func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT id, event_id, chat_id, username, name, phone, gender, age, level, note, ticket_code, approved_by, approved_at
			 FROM roster_entries WHERE event_id = ? AND chat_id = ?`,
			eventID, chatID,
		).Scan(
			&entry.ID, &entry.EventID, &entry.ChatID, &entry.Username, &entry.Name,
			&entry.Phone, &gender, &entry.Age, &level, &entry.Note,
			&entry.TicketCode, &entry.ApprovedBy, &entry.ApprovedAt,
		)
	})

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	entry.Gender = domain.Gender(gender)
	entry.Level = domain.Level(level)
	return &entry, nil
}

// Remove deletes an applicant's roster entry. Returns true when an entry
// was actually removed.
func (r *RosterRepository) Remove(ctx context.Context, eventID string, chatID int64) (bool, error) {
	var removed bool
	err := r.queue.Execute(func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`DELETE FROM roster_entries WHERE event_id = ? AND chat_id = ?`,
			eventID, chatID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	return removed, err
}
