package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"evsched/internal/model"
)

type testHook struct {
	id       string
	priority int
	err      error
	seen     *[]string
}

func (h testHook) ID() string    { return h.id }
func (h testHook) Priority() int { return h.priority }
func (h testHook) Handle(_ context.Context, _ *Notice) error {
	*h.seen = append(*h.seen, h.id)
	return h.err
}

func TestChainRunsAllInPriorityOrder(t *testing.T) {
	seen := []string{}
	boom := errors.New("boom")
	c := NewChain(
		testHook{id: "low", priority: 1, seen: &seen},
		testHook{id: "high", priority: 10, err: boom, seen: &seen},
		testHook{id: "mid", priority: 5, seen: &seen},
	)

	results, err := c.Dispatch(context.Background(), &Notice{Kind: KindCreated})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined hook error, got %v", err)
	}
	if got := strings.Join(seen, ","); got != "high,mid,low" {
		t.Fatalf("expected all hooks in priority order, got %s", got)
	}
	if len(results) != 3 || results[0].Err == nil || results[1].Err != nil {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestChainStableOrderOnEqualPriority(t *testing.T) {
	seen := []string{}
	c := NewChain(
		testHook{id: "a", priority: 5, seen: &seen},
		testHook{id: "b", priority: 5, seen: &seen},
		testHook{id: "c", priority: 5, seen: &seen},
	)
	if _, err := c.Dispatch(context.Background(), &Notice{Kind: KindDeleted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(seen, ","); got != "a,b,c" {
		t.Fatalf("expected registration order, got %s", got)
	}
}

func TestFuncHookKindFilter(t *testing.T) {
	calls := 0
	c := NewChain(NewInvalidateHook("cache", func() { calls++ }))

	results, _ := c.Dispatch(context.Background(), &Notice{Kind: KindConflict})
	if calls != 0 || len(results) != 1 || !results[0].Skipped {
		t.Fatalf("conflict notices must not invalidate, results %+v", results)
	}
	_, _ = c.Dispatch(context.Background(), &Notice{Kind: KindUpdated})
	if calls != 1 {
		t.Fatalf("expected one invalidation, got %d", calls)
	}
}

func TestChainRecoversPanics(t *testing.T) {
	c := NewChain(NewFunc("bad", 1, func(context.Context, *Notice) error { panic("nope") }))
	if _, err := c.Dispatch(context.Background(), &Notice{Kind: KindCreated}); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
}

func TestNilChainIsNoop(t *testing.T) {
	var c *Chain
	if res, err := c.Dispatch(context.Background(), &Notice{Kind: KindCreated}); res != nil || err != nil {
		t.Fatalf("expected no-op, got %v %v", res, err)
	}
	c.Notify(context.Background(), nil, &Notice{Kind: KindCreated})
}

func TestAuditWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	c := NewChain(NewFunc("noop", 1, func(context.Context, *Notice) error { return nil }))
	c.SetAuditWriter(&buf)

	d := model.Date{Year: 2024, Month: 6, Day: 1}
	slot := model.NewSlot(d, model.TimeOfDay{Hour: 18}, "Grand Hall")
	_, _ = c.Dispatch(context.Background(), &Notice{Kind: KindConflict, Slot: slot, Suggestions: []string{"Hall B"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one audit line, got %d", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	if entry["kind"] != "conflict" || entry["hook"] != "noop" || entry["slot"] != "Grand Hall on 2024-06-01 at 18:00" {
		t.Fatalf("unexpected audit entry %v", entry)
	}
}
