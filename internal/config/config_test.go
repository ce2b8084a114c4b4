package config

import (
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// setBaseEnv sets the required env vars and returns a restore func
func setBaseEnv(t *testing.T) func() {
	t.Helper()

	saved := map[string]string{}
	for _, key := range []string{
		"TELEGRAM_TOKEN", "ADMIN_GROUP_ID", "ADMIN_USER_IDS",
		"AUTO_APPROVE_DELAY", "OPTIONAL_FIELDS", "EVENTS_JSON",
		"MEETUP_LINKS_JSON", "DEFAULT_LOCALE", "SUPPORT_CONTACT",
	} {
		saved[key] = os.Getenv(key)
		_ = os.Unsetenv(key)
	}

	_ = os.Setenv("TELEGRAM_TOKEN", "test_token")
	_ = os.Setenv("ADMIN_GROUP_ID", "-100123456")
	_ = os.Setenv("ADMIN_USER_IDS", "111,222")

	return func() {
		for key, value := range saved {
			if value == "" {
				_ = os.Unsetenv(key)
			} else {
				_ = os.Setenv(key, value)
			}
		}
	}
}

func TestMissingRequiredVars(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	tests := []string{"TELEGRAM_TOKEN", "ADMIN_GROUP_ID", "ADMIN_USER_IDS"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			value := os.Getenv(key)
			_ = os.Unsetenv(key)
			defer func() { _ = os.Setenv(key, value) }()

			if _, err := Load(); err == nil {
				t.Errorf("Load() succeeded without %s", key)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AutoApproveDelay != 12*time.Hour {
		t.Errorf("AutoApproveDelay = %v, want 12h", cfg.AutoApproveDelay)
	}
	if cfg.DefaultLocale != "fa" {
		t.Errorf("DefaultLocale = %q, want fa", cfg.DefaultLocale)
	}
	if len(cfg.Events) == 0 {
		t.Error("Events should fall back to the built-in catalog")
	}
	for _, field := range []string{FieldGender, FieldAge, FieldNote} {
		if !cfg.FieldEnabled(field) {
			t.Errorf("FieldEnabled(%s) = false, want true by default", field)
		}
	}
	if !cfg.IsAdmin(111) || !cfg.IsAdmin(222) {
		t.Error("configured admin IDs not recognized")
	}
	if cfg.IsAdmin(333) {
		t.Error("unknown ID recognized as admin")
	}
}

func TestInvalidAutoApproveDelayRejection(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("invalid AUTO_APPROVE_DELAY values are rejected", prop.ForAll(
		func(invalidValue string) bool {
			_ = os.Setenv("AUTO_APPROVE_DELAY", invalidValue)

			_, err := Load()
			return err != nil
		},
		gen.OneConstOf("abc", "12", "-5m", "0s", "1x", "  ", "twelve hours", "-1h"),
	))

	properties.TestingRun(t)
}

func TestValidAutoApproveDelay(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	_ = os.Setenv("AUTO_APPROVE_DELAY", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AutoApproveDelay != 90*time.Minute {
		t.Errorf("AutoApproveDelay = %v, want 90m", cfg.AutoApproveDelay)
	}
}

func TestOptionalFieldsParsing(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	tests := []struct {
		name    string
		value   string
		gender  bool
		age     bool
		note    bool
		wantErr bool
	}{
		{name: "default enables all", value: "", gender: true, age: true, note: true},
		{name: "none disables all", value: "none"},
		{name: "subset", value: "gender,note", gender: true, note: true},
		{name: "whitespace and case tolerated", value: " Age , NOTE ", age: true, note: true},
		{name: "unknown field rejected", value: "gender,height", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				_ = os.Unsetenv("OPTIONAL_FIELDS")
			} else {
				_ = os.Setenv("OPTIONAL_FIELDS", tt.value)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Load() succeeded for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if cfg.FieldEnabled(FieldGender) != tt.gender {
				t.Errorf("FieldEnabled(gender) = %v, want %v", cfg.FieldEnabled(FieldGender), tt.gender)
			}
			if cfg.FieldEnabled(FieldAge) != tt.age {
				t.Errorf("FieldEnabled(age) = %v, want %v", cfg.FieldEnabled(FieldAge), tt.age)
			}
			if cfg.FieldEnabled(FieldNote) != tt.note {
				t.Errorf("FieldEnabled(note) = %v, want %v", cfg.FieldEnabled(FieldNote), tt.note)
			}
		})
	}
}

func TestEventsJSONParsing(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	_ = os.Setenv("EVENTS_JSON", `[{"id":"w1","title":"Walk & Talk","capacity":15}]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Events) != 1 || cfg.Events[0].ID != "w1" || cfg.Events[0].Capacity != 15 {
		t.Errorf("Events = %+v, want the configured walk event", cfg.Events)
	}

	_ = os.Setenv("EVENTS_JSON", `[]`)
	if _, err := Load(); err == nil {
		t.Error("Load() succeeded with empty EVENTS_JSON")
	}

	_ = os.Setenv("EVENTS_JSON", `{broken`)
	if _, err := Load(); err == nil {
		t.Error("Load() succeeded with malformed EVENTS_JSON")
	}
}

func TestMeetupLinksParsing(t *testing.T) {
	restore := setBaseEnv(t)
	defer restore()

	_ = os.Setenv("MEETUP_LINKS_JSON", `{"m1":"https://t.me/+abc"}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MeetupLinks["m1"] != "https://t.me/+abc" {
		t.Errorf("MeetupLinks = %+v, want m1 link", cfg.MeetupLinks)
	}
}
