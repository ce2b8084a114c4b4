package domain

import (
	"context"
)

// Unlimited is the remaining-capacity sentinel for events without a cap
const Unlimited = -1

// RosterRepository interface for roster operations
type RosterRepository interface {
	AppendIfAllowed(ctx context.Context, event *Event, entry *RosterEntry) error
	ApprovedCount(ctx context.Context, eventID string) (int, error)
	GenderCount(ctx context.Context, eventID string, gender Gender) (int, error)
	GetByEvent(ctx context.Context, eventID string) ([]*RosterEntry, error)
	Get(ctx context.Context, eventID string, chatID int64) (*RosterEntry, error)
	Remove(ctx context.Context, eventID string, chatID int64) (bool, error)
}

// RosterService exposes occupancy reads and roster maintenance over the
// approved registrants of the catalog events
type RosterService struct {
	catalog *Catalog
	repo    RosterRepository
	logger  Logger
}

// NewRosterService creates a new RosterService
func NewRosterService(catalog *Catalog, repo RosterRepository, logger Logger) *RosterService {
	return &RosterService{
		catalog: catalog,
		repo:    repo,
		logger:  logger,
	}
}

// ApprovedCount returns the number of approved registrants for an event
func (rs *RosterService) ApprovedCount(ctx context.Context, eventID string) (int, error) {
	return rs.repo.ApprovedCount(ctx, eventID)
}

// RemainingCapacity returns the free seats for an event, or Unlimited
// when the event has no capacity configured
func (rs *RosterService) RemainingCapacity(ctx context.Context, eventID string) (int, error) {
	event, err := rs.catalog.Get(eventID)
	if err != nil {
		return 0, err
	}
	if event.Unlimited() {
		return Unlimited, nil
	}

	count, err := rs.repo.ApprovedCount(ctx, eventID)
	if err != nil {
		return 0, err
	}

	remaining := event.Capacity - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// GenderCount returns the approved registrants of a gender for an event
func (rs *RosterService) GenderCount(ctx context.Context, eventID string, gender Gender) (int, error) {
	return rs.repo.GenderCount(ctx, eventID, gender)
}

// CheckAvailability verifies capacity and the gender sub-limit for a new
// applicant. Returns ErrEventFull or ErrGenderCapReached on saturation.
// This is the cheap precheck; the authoritative check happens again inside
// the roster append transaction.
func (rs *RosterService) CheckAvailability(ctx context.Context, eventID string, gender Gender) error {
	event, err := rs.catalog.Get(eventID)
	if err != nil {
		return err
	}

	if !event.Unlimited() {
		count, err := rs.repo.ApprovedCount(ctx, eventID)
		if err != nil {
			return err
		}
		if count >= event.Capacity {
			return ErrEventFull
		}
	}

	if cap := event.GenderCap(gender); cap >= 0 {
		count, err := rs.repo.GenderCount(ctx, eventID, gender)
		if err != nil {
			return err
		}
		if count >= cap {
			return ErrGenderCapReached
		}
	}

	return nil
}

// Roster returns the approved registrants for an event in approval order
func (rs *RosterService) Roster(ctx context.Context, eventID string) ([]*RosterEntry, error) {
	return rs.repo.GetByEvent(ctx, eventID)
}

// Entry returns the applicant's roster entry for an event, or nil
func (rs *RosterService) Entry(ctx context.Context, eventID string, chatID int64) (*RosterEntry, error) {
	return rs.repo.Get(ctx, eventID, chatID)
}

// Cancel removes the applicant's roster entry, freeing a seat
func (rs *RosterService) Cancel(ctx context.Context, eventID string, chatID int64) (bool, error) {
	removed, err := rs.repo.Remove(ctx, eventID, chatID)
	if err != nil {
		rs.logger.Error("failed to cancel registration", "event_id", eventID, "chat_id", chatID, "error", err)
		return false, err
	}
	if removed {
		rs.logger.Info("registration cancelled", "event_id", eventID, "chat_id", chatID)
	}
	return removed, nil
}
