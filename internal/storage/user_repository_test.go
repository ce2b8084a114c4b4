package storage

import (
	"context"
	"testing"

	"github.com/chillchat/community-bot/internal/domain"
)

func TestUserUpsertRefreshes(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewUserRepository(queue)

	if err := repo.Upsert(ctx, &domain.User{ChatID: 1, Username: "old", FirstName: "Old", Locale: "fa"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, &domain.User{ChatID: 1, Username: "new", FirstName: "New", Locale: "fa"}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}

	users, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(users) != 1 || users[0].Username != "new" {
		t.Errorf("All = %+v, want one user with username new", users)
	}
}

func TestUserAllReturnsEveryone(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewUserRepository(queue)

	for i := int64(1); i <= 5; i++ {
		if err := repo.Upsert(ctx, &domain.User{ChatID: i, Locale: "fa"}); err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}

	users, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(users) != 5 {
		t.Errorf("All returned %d users, want 5", len(users))
	}
}

func TestBoardMessageBookkeeping(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewBoardRepository(queue)

	id, err := repo.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if id != 0 {
		t.Errorf("Get for unknown event = %d, want 0", id)
	}

	if err := repo.Set(ctx, "m1", 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(ctx, "m1", 43); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	id, err = repo.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if id != 43 {
		t.Errorf("Get = %d, want 43", id)
	}
}
