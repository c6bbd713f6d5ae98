package schedule

import (
	"errors"
	"fmt"

	"evsched/internal/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrSlotConflict = errors.New("slot conflict")
	ErrInvalid      = errors.New("invalid input")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports that another event already holds the slot.
// Suggestions is never nil and holds at most suggest.MaxSuggestions entries.
type ConflictError struct {
	Slot        model.Slot
	Message     string
	Suggestions []string
	cause       error
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *ConflictError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrSlotConflict}
	}
	return []error{ErrSlotConflict, e.cause}
}

// ConflictMessage is the user-facing text for a taken slot.
func ConflictMessage(slot model.Slot) string {
	return fmt.Sprintf("An event already exists at %s on %s at %s. Please choose a different date, time, or location.",
		deref(slot.Location), slot.Date, slot.Time)
}

// ValidationError rejects a request before any lookup or conflict check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
