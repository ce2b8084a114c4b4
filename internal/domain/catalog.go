package domain

import (
	"encoding/json"
	"fmt"
)

// Catalog is the read-only event catalog configured at startup
type Catalog struct {
	events []Event
	byID   map[string]*Event
}

// NewCatalog builds a catalog after validating every event and rejecting
// duplicate IDs
func NewCatalog(events []Event) (*Catalog, error) {
	c := &Catalog{
		events: make([]Event, len(events)),
		byID:   make(map[string]*Event, len(events)),
	}
	copy(c.events, events)

	for i := range c.events {
		ev := &c.events[i]
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.ID, err)
		}
		if _, exists := c.byID[ev.ID]; exists {
			return nil, fmt.Errorf("duplicate event ID %q", ev.ID)
		}
		c.byID[ev.ID] = ev
	}

	return c, nil
}

// ParseCatalog builds a catalog from a JSON array of events
func ParseCatalog(data []byte) (*Catalog, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse event catalog: %w", err)
	}
	return NewCatalog(events)
}

// Get returns the event with the given ID
func (c *Catalog) Get(id string) (*Event, error) {
	ev, ok := c.byID[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

// All returns the events in configuration order
func (c *Catalog) All() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Len returns the number of events
func (c *Catalog) Len() int {
	return len(c.events)
}
