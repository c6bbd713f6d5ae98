package hooks

import (
	"context"
	"log/slog"
)

// NewLogHook logs every notice at info level, conflicts at warn.
func NewLogHook(logger *slog.Logger) Hook {
	return NewFunc("log", 100, func(_ context.Context, n *Notice) error {
		attrs := []any{"kind", n.Kind, "event_id", n.EventID, "title", n.Title}
		if n.Slot.Complete() {
			attrs = append(attrs, "slot", n.Slot.String())
		}
		if n.Kind == KindConflict {
			logger.Warn("slot conflict", append(attrs, "suggestions", len(n.Suggestions))...)
			return nil
		}
		logger.Info("event changed", attrs...)
		return nil
	})
}

// NewInvalidateHook calls invalidate after every committed change.
func NewInvalidateHook(id string, invalidate func()) Hook {
	return NewFunc(id, 50, func(context.Context, *Notice) error {
		invalidate()
		return nil
	}, KindCreated, KindUpdated, KindDeleted)
}
