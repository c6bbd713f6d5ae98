// Package store persists events and tasks.
//
// Both backends enforce slot uniqueness at save time and report violations
// as ErrDuplicateSlot; the in-process conflict check in the schedule package
// is only a pre-flight for a better error message.
package store

import (
	"context"
	"errors"
	"strings"

	"evsched/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSlot = errors.New("duplicate event slot")
)

// EventStore is durable storage for events.
type EventStore interface {
	// ExistsWithSlot reports whether an event other than excludeID (0 for
	// none) occupies the complete slot.
	ExistsWithSlot(ctx context.Context, slot model.Slot, excludeID int64) (bool, error)
	// Save inserts (ID == 0) or updates the event in place, assigning ID and
	// audit timestamps.
	Save(ctx context.Context, e *model.Event) error
	FindByID(ctx context.Context, id int64) (model.Event, error)
	DeleteByID(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// List returns matching events ordered by ID.
	List(ctx context.Context, f EventFilter) ([]model.Event, error)
	Count(ctx context.Context, f EventFilter) (int64, error)
}

// TaskStore is durable storage for tasks.
type TaskStore interface {
	Save(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id int64) (model.Task, error)
	DeleteByID(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f TaskFilter) ([]model.Task, error)
	Count(ctx context.Context, f TaskFilter) (int64, error)
}

// EventFilter selects events. Zero fields match everything; date bounds
// never match events without a date.
type EventFilter struct {
	Status   model.EventStatus
	On       *model.Date
	From     *model.Date // inclusive
	To       *model.Date // inclusive
	Before   *model.Date // exclusive
	Title    string      // case-insensitive substring
	Location string      // case-insensitive substring
}

func (f EventFilter) match(e model.Event) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.On != nil || f.From != nil || f.To != nil || f.Before != nil {
		if e.Date == nil {
			return false
		}
		d := *e.Date
		if f.On != nil && d != *f.On {
			return false
		}
		if f.From != nil && d.Before(*f.From) {
			return false
		}
		if f.To != nil && d.After(*f.To) {
			return false
		}
		if f.Before != nil && !d.Before(*f.Before) {
			return false
		}
	}
	if f.Title != "" && !containsFold(e.Title, f.Title) {
		return false
	}
	if f.Location != "" && (e.Location == nil || !containsFold(*e.Location, f.Location)) {
		return false
	}
	return true
}

// TaskFilter selects tasks. Zero fields match everything.
type TaskFilter struct {
	Completed       *bool
	Priority        model.TaskPriority
	Assignee        string
	EventID         *int64
	DueOn           *model.Date
	DueBefore       *model.Date // exclusive
	CompletedBefore *model.Date // exclusive, on completion date
	Title           string      // case-insensitive substring
}

func (f TaskFilter) match(t model.Task) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	if f.EventID != nil && (t.EventID == nil || *t.EventID != *f.EventID) {
		return false
	}
	if f.DueOn != nil && (t.DueDate == nil || *t.DueDate != *f.DueOn) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.CompletedBefore != nil && (t.CompletionDate == nil || !t.CompletionDate.Before(*f.CompletedBefore)) {
		return false
	}
	if f.Title != "" && !containsFold(t.Title, f.Title) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
