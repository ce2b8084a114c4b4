package storage

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB opens an in-memory database with the schema applied and
// returns the queue plus a cleanup func
func setupTestDB(t *testing.T) (*DBQueue, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	queue := NewDBQueue(db)

	if err := InitSchema(queue); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := RunMigrations(queue); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return queue, func() {
		queue.Close()
		_ = db.Close()
	}
}
