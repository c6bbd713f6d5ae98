package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"evsched/internal/model"
)

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func slotEvent(t *testing.T, title, date, clock, location string) model.Event {
	t.Helper()
	d := mustDate(t, date)
	tm, err := model.ParseTimeOfDay(clock)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return model.Event{Title: title, Date: &d, Time: &tm, Location: &location, Status: model.StatusPending}
}

func openSQL(t *testing.T) *SQL {
	t.Helper()
	db, err := OpenSQL(filepath.Join(t.TempDir(), "evsched.db"), nil)
	if err != nil {
		t.Fatalf("open sql store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func eventBackends(t *testing.T) map[string]func() EventStore {
	return map[string]func() EventStore{
		"memory": func() EventStore { return NewMemoryEvents() },
		"sql":    func() EventStore { return openSQL(t).Events() },
	}
}

func taskBackends(t *testing.T) map[string]func() TaskStore {
	return map[string]func() TaskStore{
		"memory": func() TaskStore { return NewMemoryTasks() },
		"sql":    func() TaskStore { return openSQL(t).Tasks() },
	}
}

func TestEventStoreSlotUniqueness(t *testing.T) {
	for name, open := range eventBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()

			first := slotEvent(t, "Gala", "2024-06-01", "18:00", "Grand Hall")
			if err := s.Save(ctx, &first); err != nil {
				t.Fatalf("save first: %v", err)
			}
			if first.ID == 0 {
				t.Fatalf("expected store-assigned id")
			}

			dup := slotEvent(t, "Other", "2024-06-01", "18:00:00", "Grand Hall")
			err := s.Save(ctx, &dup)
			if !errors.Is(err, ErrDuplicateSlot) {
				t.Fatalf("expected ErrDuplicateSlot, got %v", err)
			}

			ok, err := s.ExistsWithSlot(ctx, first.Slot(), 0)
			if err != nil || !ok {
				t.Fatalf("expected slot to be occupied, got %v %v", ok, err)
			}
			ok, err = s.ExistsWithSlot(ctx, first.Slot(), first.ID)
			if err != nil || ok {
				t.Fatalf("expected exclusion of own id, got %v %v", ok, err)
			}

			// Re-saving the same event with its own slot is not a duplicate.
			first.Title = "Gala (renamed)"
			if err := s.Save(ctx, &first); err != nil {
				t.Fatalf("resave: %v", err)
			}
			got, err := s.FindByID(ctx, first.ID)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if got.Title != "Gala (renamed)" || !got.Slot().Equal(first.Slot()) {
				t.Fatalf("unexpected stored event %+v", got)
			}
		})
	}
}

func TestEventStoreDraftsNeverCollide(t *testing.T) {
	for name, open := range eventBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()
			d := mustDate(t, "2024-06-01")
			for i := 0; i < 2; i++ {
				draft := model.Event{Title: "Draft", Date: &d, Status: model.StatusPending}
				if err := s.Save(ctx, &draft); err != nil {
					t.Fatalf("save draft %d: %v", i, err)
				}
			}
			n, err := s.Count(ctx, EventFilter{On: &d})
			if err != nil || n != 2 {
				t.Fatalf("expected 2 drafts, got %d %v", n, err)
			}
		})
	}
}

func TestEventStoreFilters(t *testing.T) {
	for name, open := range eventBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()
			a := slotEvent(t, "Board Meeting", "2024-05-01", "09:00", "Room 1")
			b := slotEvent(t, "Summer Gala", "2024-06-01", "18:00", "Grand Hall")
			b.Status = model.StatusConfirmed
			c := slotEvent(t, "Team lunch", "2024-07-01", "12:00", "Cafeteria")
			for _, e := range []*model.Event{&a, &b, &c} {
				if err := s.Save(ctx, e); err != nil {
					t.Fatalf("save: %v", err)
				}
			}

			from := mustDate(t, "2024-06-01")
			got, err := s.List(ctx, EventFilter{From: &from})
			if err != nil || len(got) != 2 || got[0].ID != b.ID || got[1].ID != c.ID {
				t.Fatalf("from filter: %+v %v", got, err)
			}
			got, _ = s.List(ctx, EventFilter{Before: &from})
			if len(got) != 1 || got[0].ID != a.ID {
				t.Fatalf("before filter: %+v", got)
			}
			got, _ = s.List(ctx, EventFilter{Title: "GALA"})
			if len(got) != 1 || got[0].ID != b.ID {
				t.Fatalf("title filter: %+v", got)
			}
			got, _ = s.List(ctx, EventFilter{Location: "hall"})
			if len(got) != 1 || got[0].ID != b.ID {
				t.Fatalf("location filter: %+v", got)
			}
			n, _ := s.Count(ctx, EventFilter{Status: model.StatusConfirmed})
			if n != 1 {
				t.Fatalf("status count: %d", n)
			}
		})
	}
}

func TestEventStoreDeleteAndNotFound(t *testing.T) {
	for name, open := range eventBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()
			e := slotEvent(t, "Gala", "2024-06-01", "18:00", "Grand Hall")
			if err := s.Save(ctx, &e); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := s.DeleteByID(ctx, e.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if ok, _ := s.ExistsByID(ctx, e.ID); ok {
				t.Fatalf("expected event to be gone")
			}
			if _, err := s.FindByID(ctx, e.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.DeleteByID(ctx, e.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
			ghost := slotEvent(t, "Ghost", "2024-06-02", "18:00", "Grand Hall")
			ghost.ID = 999
			if err := s.Save(ctx, &ghost); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound updating unknown id, got %v", err)
			}
		})
	}
}

func TestTaskStoreFilters(t *testing.T) {
	for name, open := range taskBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()
			eventID := int64(7)
			due := mustDate(t, "2024-06-01")
			done := mustDate(t, "2024-05-20")
			tasks := []model.Task{
				{Title: "Book caterer", Priority: model.PriorityHigh, Assignee: "sam", DueDate: &due, EventID: &eventID},
				{Title: "Send invites", Priority: model.PriorityMedium, Assignee: "alex", Completed: true, CompletionDate: &done},
				{Title: "Print badges", Priority: model.PriorityLow, Assignee: "sam"},
			}
			for i := range tasks {
				if err := s.Save(ctx, &tasks[i]); err != nil {
					t.Fatalf("save: %v", err)
				}
			}

			no := false
			got, err := s.List(ctx, TaskFilter{Completed: &no})
			if err != nil || len(got) != 2 {
				t.Fatalf("completed=false: %+v %v", got, err)
			}
			got, _ = s.List(ctx, TaskFilter{Assignee: "sam"})
			if len(got) != 2 {
				t.Fatalf("assignee filter: %+v", got)
			}
			got, _ = s.List(ctx, TaskFilter{EventID: &eventID})
			if len(got) != 1 || got[0].Title != "Book caterer" {
				t.Fatalf("event filter: %+v", got)
			}
			before := mustDate(t, "2024-06-02")
			n, _ := s.Count(ctx, TaskFilter{DueBefore: &before})
			if n != 1 {
				t.Fatalf("due-before count: %d", n)
			}
			n, _ = s.Count(ctx, TaskFilter{CompletedBefore: &before})
			if n != 1 {
				t.Fatalf("completed-before count: %d", n)
			}
			got, _ = s.List(ctx, TaskFilter{Title: "INVITE"})
			if len(got) != 1 || !got[0].Completed || got[0].CompletionDate == nil || *got[0].CompletionDate != done {
				t.Fatalf("title filter: %+v", got)
			}
		})
	}
}

func TestLikePatternEscapes(t *testing.T) {
	if got := likePattern("50%_Off"); got != `%50\%\_off%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestSQLLogsRejectedDuplicate(t *testing.T) {
	var buf bytes.Buffer
	db, err := OpenSQL(filepath.Join(t.TempDir(), "evsched.db"), slog.New(slog.NewTextHandler(&buf, nil)))
	if err != nil {
		t.Fatalf("open sql store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := db.Events()
	ctx := context.Background()

	first := slotEvent(t, "Gala", "2024-06-01", "18:00", "Grand Hall")
	if err := s.Save(ctx, &first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	dup := slotEvent(t, "Other", "2024-06-01", "18:00", "Grand Hall")
	if err := s.Save(ctx, &dup); !errors.Is(err, ErrDuplicateSlot) {
		t.Fatalf("expected ErrDuplicateSlot, got %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "unique index rejected event") || !strings.Contains(out, "Grand Hall") {
		t.Fatalf("expected rejection to be logged, got %q", out)
	}
}
