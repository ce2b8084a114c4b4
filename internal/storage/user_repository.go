package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/chillchat/community-bot/internal/domain"
)

// UserRepository keeps every chat the bot has seen, for broadcasts
type UserRepository struct {
	queue *DBQueue
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(queue *DBQueue) *UserRepository {
	return &UserRepository{queue: queue}
}

// Upsert records a user, refreshing username and last-seen time
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.SeenAt.IsZero() {
		user.SeenAt = time.Now()
	}

	return r.queue.Execute(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (chat_id, username, first_name, locale, seen_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(chat_id) DO UPDATE SET
				username = excluded.username,
				first_name = excluded.first_name,
				seen_at = excluded.seen_at
		`, user.ChatID, user.Username, user.FirstName, user.Locale, user.SeenAt)
		return err
	})
}

// All returns every known user
func (r *UserRepository) All(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User

	err := r.queue.Execute(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT chat_id, username, first_name, locale, seen_at FROM users ORDER BY seen_at`,
		)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var user domain.User
			if err := rows.Scan(&user.ChatID, &user.Username, &user.FirstName, &user.Locale, &user.SeenAt); err != nil {
				return err
			}
			users = append(users, &user)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of known users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.queue.Execute(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	})
	return count, err
}
