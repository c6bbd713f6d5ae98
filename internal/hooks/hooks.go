// Package hooks fans event-service notices out to side-effect handlers
// (logging, cache invalidation, audit) in priority order.
package hooks

import (
	"context"

	"evsched/internal/model"
)

type Kind string

const (
	KindCreated  Kind = "created"
	KindUpdated  Kind = "updated"
	KindDeleted  Kind = "deleted"
	KindConflict Kind = "conflict"
)

// Notice describes one outcome of an event mutation. EventID is zero for a
// rejected create.
type Notice struct {
	Kind        Kind
	EventID     int64
	Title       string
	Slot        model.Slot
	Message     string
	Suggestions []string
}

type Hook interface {
	ID() string
	Priority() int
	Handle(ctx context.Context, n *Notice) error
}

// ConditionalHook lets a hook opt out per notice. Skipped hooks are still
// reported in dispatch results.
type ConditionalHook interface {
	ShouldHandle(ctx context.Context, n *Notice) bool
}

type funcHook struct {
	id       string
	priority int
	fn       func(ctx context.Context, n *Notice) error
	kinds    map[Kind]struct{}
}

// NewFunc wraps fn as a hook. When kinds is non-empty the hook only sees
// notices of those kinds.
func NewFunc(id string, priority int, fn func(ctx context.Context, n *Notice) error, kinds ...Kind) Hook {
	h := &funcHook{id: id, priority: priority, fn: fn}
	if len(kinds) > 0 {
		h.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			h.kinds[k] = struct{}{}
		}
	}
	return h
}

func (h *funcHook) ID() string    { return h.id }
func (h *funcHook) Priority() int { return h.priority }

func (h *funcHook) Handle(ctx context.Context, n *Notice) error {
	return h.fn(ctx, n)
}

func (h *funcHook) ShouldHandle(_ context.Context, n *Notice) bool {
	if h.kinds == nil {
		return true
	}
	_, ok := h.kinds[n.Kind]
	return ok
}
