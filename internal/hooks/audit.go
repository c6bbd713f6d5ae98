package hooks

import (
	"encoding/json"
	"io"
	"time"
)

type auditEntry struct {
	Timestamp   string   `json:"ts"`
	Kind        string   `json:"kind"`
	HookID      string   `json:"hook"`
	Priority    int      `json:"priority"`
	Skipped     bool     `json:"skipped,omitempty"`
	Error       string   `json:"error,omitempty"`
	EventID     int64    `json:"event_id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Slot        string   `json:"slot,omitempty"`
	Suggestions int      `json:"suggestions,omitempty"`
	Lines       []string `json:"suggestion_lines,omitempty"`
}

func (c *Chain) audit(n *Notice, h Hook, skipped bool, err error) {
	c.auditMu.Lock()
	defer c.auditMu.Unlock()
	if c.auditW == nil || n == nil {
		return
	}

	entry := auditEntry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Kind:        string(n.Kind),
		HookID:      h.ID(),
		Priority:    h.Priority(),
		Skipped:     skipped,
		EventID:     n.EventID,
		Title:       n.Title,
		Suggestions: len(n.Suggestions),
		Lines:       n.Suggestions,
	}
	if n.Slot.Complete() {
		entry.Slot = n.Slot.String()
	}
	if err != nil {
		entry.Error = err.Error()
	}

	b, mErr := json.Marshal(entry)
	if mErr != nil {
		return
	}
	_, _ = io.WriteString(c.auditW, string(b)+"\n")
}
