package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// Chain runs hooks in descending Priority order. Equal priorities keep
// registration order. Every hook runs even when an earlier one fails.
type Chain struct {
	mu    sync.RWMutex
	hooks []Hook

	auditMu sync.Mutex
	auditW  io.Writer
}

type Result struct {
	HookID   string
	Priority int
	Skipped  bool
	Err      error
}

func NewChain(hs ...Hook) *Chain {
	c := &Chain{}
	for _, h := range hs {
		c.Use(h)
	}
	return c
}

// SetAuditWriter enables JSONL audit lines for each dispatched hook. A nil
// writer disables them.
func (c *Chain) SetAuditWriter(w io.Writer) {
	c.auditMu.Lock()
	defer c.auditMu.Unlock()
	c.auditW = w
}

func (c *Chain) Use(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
	sort.SliceStable(c.hooks, func(i, j int) bool {
		return c.hooks[i].Priority() > c.hooks[j].Priority()
	})
}

func (c *Chain) List() []Hook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Hook, len(c.hooks))
	copy(out, c.hooks)
	return out
}

// Dispatch delivers n to every hook and joins their errors. A nil chain is
// a no-op.
func (c *Chain) Dispatch(ctx context.Context, n *Notice) ([]Result, error) {
	if c == nil {
		return nil, nil
	}
	hs := c.List()

	results := make([]Result, 0, len(hs))
	var errs []error
	for _, h := range hs {
		if ch, ok := h.(ConditionalHook); ok && !ch.ShouldHandle(ctx, n) {
			c.audit(n, h, true, nil)
			results = append(results, Result{HookID: h.ID(), Priority: h.Priority(), Skipped: true})
			continue
		}
		err := c.handle(ctx, h, n)
		c.audit(n, h, false, err)
		results = append(results, Result{HookID: h.ID(), Priority: h.Priority(), Err: err})
		if err != nil {
			errs = append(errs, fmt.Errorf("hook %s: %w", h.ID(), err))
		}
	}
	return results, errors.Join(errs...)
}

func (c *Chain) handle(ctx context.Context, h Hook, n *Notice) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, n)
}

// Notify dispatches n and logs any hook failure instead of returning it.
func (c *Chain) Notify(ctx context.Context, logger *slog.Logger, n *Notice) {
	if _, err := c.Dispatch(ctx, n); err != nil && logger != nil {
		logger.Warn("notification hooks failed", "kind", n.Kind, "event_id", n.EventID, "err", err)
	}
}
