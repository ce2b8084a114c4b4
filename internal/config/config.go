package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chillchat/community-bot/internal/domain"
)

// Optional wizard fields that may be toggled via OPTIONAL_FIELDS
const (
	FieldGender = "gender"
	FieldAge    = "age"
	FieldNote   = "note"
)

// defaultEvents is used when EVENTS_JSON is not provided
var defaultEvents = []domain.Event{
	{
		ID:          "m1",
		Title:       "Coffee & Conversation",
		When:        "2025-10-12 18:30",
		Place:       "Café République",
		MapsURL:     "https://maps.google.com/?q=Café+République",
		Price:       "Free",
		Description: "جلسه‌ی گفتگوهای آزاد انگلیسی با موضوعات سبک و دوستانه.",
	},
}

// Config holds application configuration
type Config struct {
	TelegramToken    string
	AdminUserIDs     []int64
	AdminGroupID     int64
	DatabasePath     string
	LogLevel         string
	DefaultLocale    string
	AutoApproveDelay time.Duration
	OptionalFields   []string
	Events           []domain.Event
	MeetupLinks      map[string]string
	SupportContact   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	groupIDStr := os.Getenv("ADMIN_GROUP_ID")
	if groupIDStr == "" {
		return nil, fmt.Errorf("ADMIN_GROUP_ID environment variable is required")
	}
	groupID, err := strconv.ParseInt(groupIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_GROUP_ID: %w", err)
	}

	adminIDsStr := os.Getenv("ADMIN_USER_IDS")
	if adminIDsStr == "" {
		return nil, fmt.Errorf("ADMIN_USER_IDS environment variable is required")
	}
	adminIDs, err := parseAdminIDs(adminIDsStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db" // default value
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO" // default value
	}

	defaultLocale := os.Getenv("DEFAULT_LOCALE")
	if defaultLocale == "" {
		defaultLocale = "fa" // default value
	}

	// Auto-approval delay (default 12h, the observed production value)
	autoApproveDelay := 12 * time.Hour
	if delayStr := os.Getenv("AUTO_APPROVE_DELAY"); delayStr != "" {
		delay, err := time.ParseDuration(delayStr)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_APPROVE_DELAY '%s': %w", delayStr, err)
		}
		if delay <= 0 {
			return nil, fmt.Errorf("invalid AUTO_APPROVE_DELAY '%s': must be positive", delayStr)
		}
		autoApproveDelay = delay
	}

	optionalFields, err := parseOptionalFields(os.Getenv("OPTIONAL_FIELDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPTIONAL_FIELDS: %w", err)
	}

	events := defaultEvents
	if eventsJSON := os.Getenv("EVENTS_JSON"); eventsJSON != "" {
		var parsed []domain.Event
		if err := json.Unmarshal([]byte(eventsJSON), &parsed); err != nil {
			return nil, fmt.Errorf("invalid EVENTS_JSON: %w", err)
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("invalid EVENTS_JSON: at least one event is required")
		}
		events = parsed
	}

	meetupLinks := map[string]string{}
	if linksJSON := os.Getenv("MEETUP_LINKS_JSON"); linksJSON != "" {
		if err := json.Unmarshal([]byte(linksJSON), &meetupLinks); err != nil {
			return nil, fmt.Errorf("invalid MEETUP_LINKS_JSON: %w", err)
		}
	}

	supportContact := os.Getenv("SUPPORT_CONTACT")
	if supportContact == "" {
		supportContact = "@englishclub_support" // default value
	}

	return &Config{
		TelegramToken:    token,
		AdminUserIDs:     adminIDs,
		AdminGroupID:     groupID,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		DefaultLocale:    defaultLocale,
		AutoApproveDelay: autoApproveDelay,
		OptionalFields:   optionalFields,
		Events:           events,
		MeetupLinks:      meetupLinks,
		SupportContact:   supportContact,
	}, nil
}

// FieldEnabled reports whether an optional wizard field is enabled
func (c *Config) FieldEnabled(field string) bool {
	for _, f := range c.OptionalFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user ID is in the admin list
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// parseAdminIDs parses comma-separated admin user IDs
func parseAdminIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin ID '%s': %w", part, err)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one admin ID is required")
	}

	return ids, nil
}

// parseOptionalFields parses the comma-separated optional field list.
// An unset variable enables all optional fields; "none" disables them all.
func parseOptionalFields(s string) ([]string, error) {
	if s == "" {
		return []string{FieldGender, FieldAge, FieldNote}, nil
	}
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return nil, nil
	}

	var fields []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch part {
		case FieldGender, FieldAge, FieldNote:
			fields = append(fields, part)
		default:
			return nil, fmt.Errorf("unknown optional field '%s'", part)
		}
	}
	return fields, nil
}
