package domain

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_NameLengthContract(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("names of 2 to 60 runes are accepted", prop.ForAll(
		func(length int) bool {
			name := strings.Repeat("ن", length)
			return ValidateName(name) == nil
		},
		gen.IntRange(2, 60),
	))

	properties.Property("names outside 2 to 60 runes are rejected", prop.ForAll(
		func(length int) bool {
			if length >= 2 && length <= 60 {
				return true
			}
			name := strings.Repeat("a", length)
			return ValidateName(name) == ErrNameLength
		},
		gen.OneConstOf(0, 1, 61, 100, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_AgeRangeContract(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("ages 1 to 120 are accepted", prop.ForAll(
		func(age int) bool {
			return ValidateAge(age) == nil
		},
		gen.IntRange(1, 120),
	))

	properties.Property("ages outside 1 to 120 are rejected", prop.ForAll(
		func(age int) bool {
			if age >= 1 && age <= 120 {
				return true
			}
			return ValidateAge(age) == ErrInvalidAge
		},
		gen.IntRange(-50, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSubmissionValidation(t *testing.T) {
	valid := Submission{
		ChatID:  123,
		EventID: "m1",
		Name:    "Sara",
		Phone:   "+989121234567",
		Gender:  GenderFemale,
		Age:     25,
		Level:   LevelIntermediate,
	}

	tests := []struct {
		name    string
		mutate  func(s *Submission)
		wantErr error
	}{
		{
			name:   "valid submission",
			mutate: func(s *Submission) {},
		},
		{
			name:   "skipped age is valid",
			mutate: func(s *Submission) { s.Age = AgeNotProvided },
		},
		{
			name:   "empty gender is valid when the step is disabled",
			mutate: func(s *Submission) { s.Gender = "" },
		},
		{
			name:    "missing chat ID",
			mutate:  func(s *Submission) { s.ChatID = 0 },
			wantErr: ErrInvalidChatID,
		},
		{
			name:    "one-character name",
			mutate:  func(s *Submission) { s.Name = "x" },
			wantErr: ErrNameLength,
		},
		{
			name:    "unknown gender",
			mutate:  func(s *Submission) { s.Gender = "other" },
			wantErr: ErrInvalidGender,
		},
		{
			name:    "age out of range",
			mutate:  func(s *Submission) { s.Age = 200 },
			wantErr: ErrInvalidAge,
		},
		{
			name:    "unknown level",
			mutate:  func(s *Submission) { s.Level = "D" },
			wantErr: ErrInvalidLevel,
		},
		{
			name:    "empty phone",
			mutate:  func(s *Submission) { s.Phone = "" },
			wantErr: ErrEmptyPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mutate(&sub)
			err := sub.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventValidation(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{
			name:  "valid limited event",
			event: Event{ID: "m1", Title: "Coffee & Conversation", Capacity: 20},
		},
		{
			name:  "valid unlimited event",
			event: Event{ID: "m2", Title: "Open Mic"},
		},
		{
			name:    "missing ID",
			event:   Event{Title: "Coffee"},
			wantErr: ErrEmptyEventID,
		},
		{
			name:    "missing title",
			event:   Event{ID: "m1"},
			wantErr: ErrEmptyEventTitle,
		},
		{
			name:    "negative capacity",
			event:   Event{ID: "m1", Title: "Coffee", Capacity: -1},
			wantErr: ErrNegativeCapacity,
		},
		{
			name:    "negative gender cap",
			event:   Event{ID: "m1", Title: "Coffee", GenderCaps: map[Gender]int{GenderMale: -2}},
			wantErr: ErrNegativeCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.event.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenderCap(t *testing.T) {
	event := Event{
		ID:         "m1",
		Title:      "Coffee",
		GenderCaps: map[Gender]int{GenderMale: 10},
	}

	if got := event.GenderCap(GenderMale); got != 10 {
		t.Errorf("GenderCap(male) = %d, want 10", got)
	}
	if got := event.GenderCap(GenderFemale); got != -1 {
		t.Errorf("GenderCap(female) = %d, want -1", got)
	}
}
