package domain

import (
	"errors"
)

var (
	// ErrInvalidContextData is returned when session context data is invalid
	ErrInvalidContextData = errors.New("invalid context data")
)

// Flow origin markers. They decide where back-navigation lands when the
// step stack empties.
const (
	OriginMenu  = "menu"
	OriginEvent = "event"
)

// RegistrationContext holds data collected during the registration wizard.
// Nav is the step history stack; its top is always the current step.
type RegistrationContext struct {
	ChatID           int64    `json:"chat_id"`
	Origin           string   `json:"origin"`
	SelectedEventID  string   `json:"selected_event_id"`
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	Gender           Gender   `json:"gender"`
	Age              int      `json:"age"`
	Level            Level    `json:"level"`
	Note             string   `json:"note"`
	Nav              []string `json:"nav"`
	LastBotMessageID int      `json:"last_bot_message_id"`
}

// Push makes step the current step
func (c *RegistrationContext) Push(step string) {
	c.Nav = append(c.Nav, step)
}

// Pop removes the current step and returns the new current step, or ""
// when the stack is empty
func (c *RegistrationContext) Pop() string {
	if len(c.Nav) > 0 {
		c.Nav = c.Nav[:len(c.Nav)-1]
	}
	return c.Current()
}

// Current returns the step on top of the stack, or "" when the stack is empty
func (c *RegistrationContext) Current() string {
	if len(c.Nav) == 0 {
		return ""
	}
	return c.Nav[len(c.Nav)-1]
}

// ToMap converts RegistrationContext to a map for JSON serialization
func (c *RegistrationContext) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"chat_id":             c.ChatID,
		"origin":              c.Origin,
		"selected_event_id":   c.SelectedEventID,
		"name":                c.Name,
		"phone":               c.Phone,
		"gender":              string(c.Gender),
		"age":                 c.Age,
		"level":               string(c.Level),
		"note":                c.Note,
		"nav":                 c.Nav,
		"last_bot_message_id": c.LastBotMessageID,
	}
}

// FromMap populates RegistrationContext from a map after JSON
// deserialization. Numbers arrive as float64 from encoding/json.
func (c *RegistrationContext) FromMap(data map[string]interface{}) error {
	if data == nil {
		return ErrInvalidContextData
	}

	if chatID, ok := data["chat_id"].(float64); ok {
		c.ChatID = int64(chatID)
	} else if chatID, ok := data["chat_id"].(int64); ok {
		c.ChatID = chatID
	}

	if origin, ok := data["origin"].(string); ok {
		c.Origin = origin
	}
	if eventID, ok := data["selected_event_id"].(string); ok {
		c.SelectedEventID = eventID
	}
	if name, ok := data["name"].(string); ok {
		c.Name = name
	}
	if phone, ok := data["phone"].(string); ok {
		c.Phone = phone
	}
	if gender, ok := data["gender"].(string); ok {
		c.Gender = Gender(gender)
	}
	if age, ok := data["age"].(float64); ok {
		c.Age = int(age)
	} else if age, ok := data["age"].(int); ok {
		c.Age = age
	}
	if level, ok := data["level"].(string); ok {
		c.Level = Level(level)
	}
	if note, ok := data["note"].(string); ok {
		c.Note = note
	}

	if nav, ok := data["nav"].([]interface{}); ok {
		c.Nav = make([]string, 0, len(nav))
		for _, step := range nav {
			if s, ok := step.(string); ok {
				c.Nav = append(c.Nav, s)
			}
		}
	} else if nav, ok := data["nav"].([]string); ok {
		c.Nav = append([]string(nil), nav...)
	}

	if msgID, ok := data["last_bot_message_id"].(float64); ok {
		c.LastBotMessageID = int(msgID)
	} else if msgID, ok := data["last_bot_message_id"].(int); ok {
		c.LastBotMessageID = msgID
	}

	return nil
}

// Submission builds the submission payload from the collected answers
func (c *RegistrationContext) Submission(username string) *Submission {
	return &Submission{
		ChatID:   c.ChatID,
		Username: username,
		EventID:  c.SelectedEventID,
		Name:     c.Name,
		Phone:    c.Phone,
		Gender:   c.Gender,
		Age:      c.Age,
		Level:    c.Level,
		Note:     c.Note,
	}
}
