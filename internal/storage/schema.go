package storage

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS roster_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL,
    chat_id INTEGER NOT NULL,
    username TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    age INTEGER NOT NULL DEFAULT 0,
    level TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    ticket_code TEXT NOT NULL DEFAULT '',
    approved_by INTEGER NOT NULL DEFAULT 0,
    approved_at TIMESTAMP NOT NULL,
    UNIQUE(event_id, chat_id)
);

CREATE INDEX IF NOT EXISTS idx_roster_event ON roster_entries(event_id);
CREATE INDEX IF NOT EXISTS idx_roster_chat ON roster_entries(chat_id);

CREATE TABLE IF NOT EXISTS pending_registrations (
    event_id TEXT NOT NULL,
    chat_id INTEGER NOT NULL,
    username TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    age INTEGER NOT NULL DEFAULT 0,
    level TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    admin_message_id INTEGER NOT NULL DEFAULT 0,
    submitted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (event_id, chat_id)
);

CREATE INDEX IF NOT EXISTS idx_pending_chat ON pending_registrations(chat_id);

CREATE TABLE IF NOT EXISTS users (
    chat_id INTEGER PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    first_name TEXT NOT NULL DEFAULT '',
    locale TEXT NOT NULL DEFAULT '',
    seen_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS board_messages (
    event_id TEXT PRIMARY KEY,
    message_id INTEGER NOT NULL
);
`

// InitSchema initializes the database schema
func InitSchema(queue *DBQueue) error {
	return queue.Execute(func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}
