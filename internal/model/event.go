package model

import (
	"fmt"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusPending   EventStatus = "PENDING"
	StatusConfirmed EventStatus = "CONFIRMED"
	StatusCancelled EventStatus = "CANCELLED"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ParseEventStatus accepts the canonical upper-case names.
func ParseEventStatus(s string) (EventStatus, error) {
	st := EventStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown event status %q", s)
	}
	return st, nil
}

// Slot is the (date, time, location) triple that must be unique across
// persisted events. Nil fields mark a partially specified draft.
type Slot struct {
	Date     *Date      `json:"date"`
	Time     *TimeOfDay `json:"time"`
	Location *string    `json:"location"`
}

// NewSlot builds a complete slot.
func NewSlot(d Date, t TimeOfDay, location string) Slot {
	return Slot{Date: &d, Time: &t, Location: &location}
}

// Complete reports whether date, time and location are all set.
func (s Slot) Complete() bool {
	return s.Date != nil && s.Time != nil && s.Location != nil
}

// Equal compares slots by value. Location comparison is case-sensitive and
// 18:00 equals 18:00:00.
func (s Slot) Equal(o Slot) bool {
	if (s.Date == nil) != (o.Date == nil) || (s.Time == nil) != (o.Time == nil) || (s.Location == nil) != (o.Location == nil) {
		return false
	}
	if s.Date != nil && *s.Date != *o.Date {
		return false
	}
	if s.Time != nil && *s.Time != *o.Time {
		return false
	}
	if s.Location != nil && *s.Location != *o.Location {
		return false
	}
	return true
}

func (s Slot) String() string {
	if !s.Complete() {
		return "(incomplete slot)"
	}
	return fmt.Sprintf("%s on %s at %s", *s.Location, s.Date, s.Time)
}

// Event is a scheduled event. Exactly one Slot per Event.
type Event struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Date            *Date       `json:"date"`
	Time            *TimeOfDay  `json:"time"`
	Location        *string     `json:"location"`
	Place           string      `json:"place,omitempty"`
	Attendees       *int        `json:"attendees,omitempty"`
	FoodPreferences string      `json:"foodPreferences,omitempty"`
	Status          EventStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (e Event) Slot() Slot {
	return Slot{Date: e.Date, Time: e.Time, Location: e.Location}
}

// Clone returns a deep copy so stored values cannot be mutated through
// shared pointers.
func (e Event) Clone() Event {
	out := e
	out.Date = clonePtr(e.Date)
	out.Time = clonePtr(e.Time)
	out.Location = clonePtr(e.Location)
	out.Attendees = clonePtr(e.Attendees)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
