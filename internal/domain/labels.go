package domain

import (
	"strconv"

	"github.com/chillchat/community-bot/internal/locale"
)

// GenderLabel returns the localized display label for a gender
func GenderLabel(l locale.Localizer, g Gender) string {
	switch g {
	case GenderFemale:
		return l.MustLocalize(locale.GenderFemale)
	case GenderMale:
		return l.MustLocalize(locale.GenderMale)
	default:
		return l.MustLocalize(locale.NotProvided)
	}
}

// LevelLabel returns the localized display label for a proficiency band
func LevelLabel(l locale.Localizer, lv Level) string {
	switch lv {
	case LevelBeginner:
		return l.MustLocalize(locale.LevelBeginner)
	case LevelIntermediate:
		return l.MustLocalize(locale.LevelIntermediate)
	case LevelAdvanced:
		return l.MustLocalize(locale.LevelAdvanced)
	default:
		return l.MustLocalize(locale.NotProvided)
	}
}

// AgeLabel returns the age as text, or the not-provided marker
func AgeLabel(l locale.Localizer, age int) string {
	if age == AgeNotProvided {
		return l.MustLocalize(locale.NotProvided)
	}
	return strconv.Itoa(age)
}

// NoteLabel returns the note, or the not-provided marker when empty
func NoteLabel(l locale.Localizer, note string) string {
	if note == "" {
		return l.MustLocalize(locale.NotProvided)
	}
	return note
}

// orDash substitutes the not-provided marker for empty values
func orDash(l locale.Localizer, s string) string {
	if s == "" {
		return l.MustLocalize(locale.NotProvided)
	}
	return s
}
