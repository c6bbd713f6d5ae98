package suggest

import (
	"context"
	"log/slog"
	"time"

	"evsched/internal/model"
)

type guarded struct {
	p       Provider
	timeout time.Duration
	logger  *slog.Logger
}

// Guard bounds every call to p by timeout and turns a panic or a nil
// answer into an empty list. Noop and already guarded providers are
// returned as is.
func Guard(p Provider, timeout time.Duration, logger *slog.Logger) Provider {
	switch p.(type) {
	case nil:
		return Noop{}
	case Noop, *guarded:
		return p
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &guarded{p: p, timeout: timeout, logger: logger}
}

func (g *guarded) Suggest(ctx context.Context, location string, date model.Date, tod model.TimeOfDay) []string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan []string, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Warn("suggestion provider panicked", "panic", r, "location", location)
				done <- nil
			}
		}()
		done <- g.p.Suggest(ctx, location, date, tod)
	}()

	select {
	case out := <-done:
		if out == nil {
			return []string{}
		}
		return out
	case <-ctx.Done():
		g.logger.Warn("suggestion provider gave up", "err", ctx.Err(), "timeout", g.timeout, "location", location)
		return []string{}
	}
}
