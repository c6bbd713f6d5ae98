package schedule

import (
	"context"

	"evsched/internal/model"
)

// SlotQuerier is the slice of the event store the checker reads.
type SlotQuerier interface {
	ExistsWithSlot(ctx context.Context, slot model.Slot, excludeID int64) (bool, error)
}

// ConflictChecker decides whether a slot is already taken. It holds no
// state; every call goes to the store.
type ConflictChecker struct {
	q SlotQuerier
}

func NewConflictChecker(q SlotQuerier) *ConflictChecker {
	return &ConflictChecker{q: q}
}

// HasConflict reports whether an event other than excludeID (0 for none)
// holds exactly this slot. Incomplete slots never conflict.
func (c *ConflictChecker) HasConflict(ctx context.Context, slot model.Slot, excludeID int64) (bool, error) {
	if !slot.Complete() {
		return false, nil
	}
	return c.q.ExistsWithSlot(ctx, slot, excludeID)
}
