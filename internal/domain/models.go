package domain

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyEventID      = errors.New("event ID cannot be empty")
	ErrEmptyEventTitle   = errors.New("event title cannot be empty")
	ErrNegativeCapacity  = errors.New("event capacity cannot be negative")
	ErrNameLength        = errors.New("name must be between 2 and 60 characters")
	ErrInvalidAge        = errors.New("age must be between 1 and 120")
	ErrInvalidGender     = errors.New("invalid gender")
	ErrInvalidLevel      = errors.New("invalid level")
	ErrEmptyPhone        = errors.New("phone cannot be empty")
	ErrInvalidChatID     = errors.New("chat ID must be set")
	ErrEventNotFound     = errors.New("event not found")
	ErrEventFull         = errors.New("event capacity reached")
	ErrGenderCapReached  = errors.New("gender limit reached for event")
	ErrPendingNotFound   = errors.New("pending registration not found")
	ErrAlreadyPending    = errors.New("registration already pending for this event")
	ErrAlreadyRegistered = errors.New("already registered for this event")
)

// Logger interface for logging
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

// Gender is an applicant's self-reported gender
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// Valid reports whether g is one of the known genders.
// An empty gender is valid when the gender step is disabled.
func (g Gender) Valid() bool {
	return g == "" || g == GenderFemale || g == GenderMale
}

// Level is an applicant's English proficiency band
type Level string

const (
	LevelBeginner     Level = "A"
	LevelIntermediate Level = "B"
	LevelAdvanced     Level = "C"
)

// Valid reports whether l is one of the known proficiency bands
func (l Level) Valid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// AgeNotProvided marks a skipped age step
const AgeNotProvided = 0

// Event is a catalog entry. Immutable for the process lifetime; only the
// roster occupancy derived from it changes.
type Event struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	When        string         `json:"when"`
	Place       string         `json:"place"`
	MapsURL     string         `json:"maps"`
	Price       string         `json:"price"`
	Description string         `json:"desc"`
	Capacity    int            `json:"capacity"`    // 0 means unlimited
	GenderCaps  map[Gender]int `json:"gender_caps"` // optional per-gender sub-limits
}

// Validate checks an event for required fields
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrEmptyEventID
	}
	if e.Title == "" {
		return ErrEmptyEventTitle
	}
	if e.Capacity < 0 {
		return ErrNegativeCapacity
	}
	for _, cap := range e.GenderCaps {
		if cap < 0 {
			return ErrNegativeCapacity
		}
	}
	return nil
}

// Unlimited reports whether the event has no overall capacity limit
func (e *Event) Unlimited() bool {
	return e.Capacity == 0
}

// GenderCap returns the sub-limit for a gender, or -1 when none is configured
func (e *Event) GenderCap(g Gender) int {
	if cap, ok := e.GenderCaps[g]; ok {
		return cap
	}
	return -1
}

// Submission holds the answers collected by the registration wizard.
// Fields are only trusted once the wizard reaches submission.
type Submission struct {
	ChatID      int64
	Username    string
	EventID     string
	Name        string
	Phone       string
	Gender      Gender
	Age         int // AgeNotProvided when skipped
	Level       Level
	Note        string
	SubmittedAt time.Time
}

// Validate checks the collected answers against the wizard's input contracts
func (s *Submission) Validate() error {
	if s.ChatID == 0 {
		return ErrInvalidChatID
	}
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if !s.Gender.Valid() {
		return ErrInvalidGender
	}
	if s.Age != AgeNotProvided {
		if err := ValidateAge(s.Age); err != nil {
			return err
		}
	}
	if !s.Level.Valid() {
		return ErrInvalidLevel
	}
	if s.Phone == "" {
		return ErrEmptyPhone
	}
	return nil
}

// ValidateName checks the name length contract (2 to 60 characters)
func ValidateName(name string) error {
	n := len([]rune(name))
	if n < 2 || n > 60 {
		return ErrNameLength
	}
	return nil
}

// ValidateAge checks the age range contract (1 to 120)
func ValidateAge(age int) error {
	if age < 1 || age > 120 {
		return ErrInvalidAge
	}
	return nil
}

// PendingRegistration is a submitted registration awaiting an admin decision
// or auto-approval. Exactly one may exist per (applicant, event) pair.
type PendingRegistration struct {
	Submission
	AdminMessageID int
}

// RosterEntry is an approved registrant on an event roster
type RosterEntry struct {
	ID         int64
	EventID    string
	ChatID     int64
	Username   string
	Name       string
	Phone      string
	Gender     Gender
	Age        int
	Level      Level
	Note       string
	TicketCode string
	ApprovedBy int64 // 0 when approved by the auto-approval timer
	ApprovedAt time.Time
}

// SystemApproved reports whether the entry was admitted by the timer
func (r *RosterEntry) SystemApproved() bool {
	return r.ApprovedBy == 0
}

// User is a chat known to the bot, kept for broadcasts
type User struct {
	ChatID    int64
	Username  string
	FirstName string
	Locale    string
	SeenAt    time.Time
}
