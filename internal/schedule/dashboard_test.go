package schedule

import (
	"context"
	"testing"
	"time"

	"evsched/internal/model"
	"evsched/internal/store"
)

func TestTrend(t *testing.T) {
	cases := []struct {
		old, cur int64
		want     int
	}{
		{0, 0, 0},
		{0, 3, 100},
		{4, 5, 25},
		{4, 2, -50},
		{3, 4, 33},
		{3, 2, -33},
	}
	for _, c := range cases {
		if got := Trend(c.old, c.cur); got != c.want {
			t.Fatalf("Trend(%d, %d) = %d, want %d", c.old, c.cur, got, c.want)
		}
	}
}

func TestDashboardStats(t *testing.T) {
	events := store.NewMemoryEvents()
	tasks := store.NewMemoryTasks()
	es := NewEventService(events, WithLogger(quietLogger()), WithClock(clock))
	ts := NewTaskService(tasks, events, WithTaskLogger(quietLogger()), WithTaskClock(clock))
	dash := NewDashboard(es, ts)
	ctx := context.Background()

	for _, d := range []string{"2024-03-01", "2024-05-01", "2024-06-01"} {
		if _, err := es.Create(ctx, EventInput{Title: ptr("e " + d), Date: ptr(date(t, d))}); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}
	old := date(t, "2024-03-20")
	if _, err := ts.Create(ctx, TaskInput{Title: ptr("old open"), DueDate: &old}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := ts.Create(ctx, TaskInput{Title: ptr("fresh done"), Completed: ptr(true)}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	st, err := dash.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := model.DashboardStats{
		TotalEvents:         3,
		UpcomingEvents:      1,
		PendingTasks:        1,
		CompletedTasks:      1,
		TotalEventsTrend:    200, // 1 event before 2024-04-15
		UpcomingEventsTrend: -50, // 2 events on or after 2024-04-15
		PendingTasksTrend:   0,   // 1 open task due before 2024-04-15
		CompletedTasksTrend: 100, // none completed before 2024-04-15
	}
	if st != want {
		t.Fatalf("got %+v\nwant %+v", st, want)
	}
}

func TestRecentTasksNewestFirstAndCapped(t *testing.T) {
	events := store.NewMemoryEvents()
	tasks := store.NewMemoryTasks()
	es := NewEventService(events, WithLogger(quietLogger()))
	ts := NewTaskService(tasks, events, WithTaskLogger(quietLogger()))
	dash := NewDashboard(es, ts)
	ctx := context.Background()

	for i := 0; i < RecentTaskLimit+2; i++ {
		if _, err := ts.Create(ctx, TaskInput{Title: ptr("t")}); err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	got, err := dash.RecentTasks(ctx)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != RecentTaskLimit {
		t.Fatalf("expected %d tasks, got %d", RecentTaskLimit, len(got))
	}
	if got[0].ID != int64(RecentTaskLimit+2) || got[0].ID < got[1].ID {
		t.Fatalf("expected newest first, got ids %d, %d", got[0].ID, got[1].ID)
	}
}
