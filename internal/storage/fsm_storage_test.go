package storage

import (
	"context"
	"io"
	"testing"

	"github.com/chillchat/community-bot/internal/logger"
)

func testFSMStorage(t *testing.T) (*FSMStorage, func()) {
	t.Helper()
	queue, cleanup := setupTestDB(t)
	log := logger.NewWithWriter(logger.ERROR, io.Discard)
	return NewFSMStorage(queue, log), cleanup
}

func TestFSMSessionRoundTrip(t *testing.T) {
	s, cleanup := testFSMStorage(t)
	defer cleanup()

	ctx := context.Background()
	data := map[string]interface{}{
		"chat_id": float64(42),
		"name":    "Sara",
		"nav":     []interface{}{"rules", "name"},
	}

	if err := s.Set(ctx, 42, "name", data); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	state, got, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if state != "name" {
		t.Errorf("state = %q, want name", state)
	}
	if got["name"] != "Sara" {
		t.Errorf("name = %v, want Sara", got["name"])
	}
}

func TestFSMSessionOverwrite(t *testing.T) {
	s, cleanup := testFSMStorage(t)
	defer cleanup()

	ctx := context.Background()
	if err := s.Set(ctx, 1, "rules", map[string]interface{}{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, 1, "gender", map[string]interface{}{"name": "Ali"}); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	state, data, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if state != "gender" {
		t.Errorf("state = %q, want gender", state)
	}
	if data["name"] != "Ali" {
		t.Errorf("name = %v, want Ali", data["name"])
	}
}

func TestFSMSessionDelete(t *testing.T) {
	s, cleanup := testFSMStorage(t)
	defer cleanup()

	ctx := context.Background()
	if err := s.Set(ctx, 7, "note", map[string]interface{}{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, _, err := s.Get(ctx, 7); err != ErrSessionNotFound {
		t.Errorf("Get after Delete = %v, want ErrSessionNotFound", err)
	}

	// Deleting a missing session is not an error
	if err := s.Delete(ctx, 7); err != nil {
		t.Errorf("Delete of missing session = %v, want nil", err)
	}
}

func TestFSMSessionMissing(t *testing.T) {
	s, cleanup := testFSMStorage(t)
	defer cleanup()

	if _, _, err := s.Get(context.Background(), 12345); err != ErrSessionNotFound {
		t.Errorf("Get for unknown user = %v, want ErrSessionNotFound", err)
	}
}
