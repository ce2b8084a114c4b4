package storage

import (
	"context"
	"testing"
	"time"

	"github.com/chillchat/community-bot/internal/domain"
)

func testPending(eventID string, chatID int64) *domain.PendingRegistration {
	return &domain.PendingRegistration{
		Submission: domain.Submission{
			ChatID:   chatID,
			Username: "user",
			EventID:  eventID,
			Name:     "Test Person",
			Phone:    "+49123456789",
			Gender:   domain.GenderFemale,
			Age:      28,
			Level:    domain.LevelAdvanced,
			Note:     "note",
		},
	}
}

func TestPendingCreateAndTake(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewPendingRepository(queue)

	pending := testPending("m1", 100)
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if pending.SubmittedAt.IsZero() {
		t.Error("Create did not stamp SubmittedAt")
	}

	exists, err := repo.Exists(ctx, "m1", 100)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("Exists = false after Create")
	}

	taken, err := repo.Take(ctx, "m1", 100)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if taken.Name != "Test Person" || taken.Gender != domain.GenderFemale || taken.Level != domain.LevelAdvanced {
		t.Errorf("Take returned wrong payload: %+v", taken)
	}

	// Take removes the row, so a second Take reports it gone. This is the
	// idempotency guarantee behind racing admin decisions.
	if _, err := repo.Take(ctx, "m1", 100); err != domain.ErrPendingNotFound {
		t.Errorf("second Take = %v, want ErrPendingNotFound", err)
	}

	exists, err = repo.Exists(ctx, "m1", 100)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Exists = true after Take")
	}
}

func TestPendingDuplicateRejected(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewPendingRepository(queue)

	if err := repo.Create(ctx, testPending("m1", 100)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, testPending("m1", 100)); err != domain.ErrAlreadyPending {
		t.Errorf("duplicate Create = %v, want ErrAlreadyPending", err)
	}

	// Same applicant on a different event is a separate pending
	if err := repo.Create(ctx, testPending("m2", 100)); err != nil {
		t.Errorf("Create for second event failed: %v", err)
	}
}

func TestPendingSetAdminMessageID(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewPendingRepository(queue)

	if err := repo.Create(ctx, testPending("m1", 100)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.SetAdminMessageID(ctx, "m1", 100, 555); err != nil {
		t.Fatalf("SetAdminMessageID failed: %v", err)
	}

	taken, err := repo.Take(ctx, "m1", 100)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if taken.AdminMessageID != 555 {
		t.Errorf("AdminMessageID = %d, want 555", taken.AdminMessageID)
	}
}

func TestPendingListOldestFirst(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewPendingRepository(queue)

	now := time.Now()
	second := testPending("m1", 200)
	second.SubmittedAt = now
	first := testPending("m1", 100)
	first.SubmittedAt = now.Add(-time.Hour)

	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pendings, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pendings) != 2 {
		t.Fatalf("List returned %d pendings, want 2", len(pendings))
	}
	if pendings[0].ChatID != 100 || pendings[1].ChatID != 200 {
		t.Errorf("List order = [%d, %d], want [100, 200]", pendings[0].ChatID, pendings[1].ChatID)
	}
}
