package schedule

import (
	"context"
	"sort"

	"evsched/internal/model"
	"evsched/internal/store"
)

// RecentTaskLimit is how many tasks the dashboard shows.
const RecentTaskLimit = 10

// Dashboard aggregates counts across events and tasks.
type Dashboard struct {
	events *EventService
	tasks  *TaskService
}

func NewDashboard(events *EventService, tasks *TaskService) *Dashboard {
	return &Dashboard{events: events, tasks: tasks}
}

// Stats compares current counts with the same counts as of one month ago.
func (d *Dashboard) Stats(ctx context.Context) (model.DashboardStats, error) {
	today := model.DateOf(d.events.now())
	monthAgo := today.AddMonths(-1)
	open, done := false, true

	var (
		st  model.DashboardStats
		err error
	)
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&st.TotalEvents, func() (int64, error) { return d.events.events.Count(ctx, store.EventFilter{}) }},
		{&st.UpcomingEvents, func() (int64, error) { return d.events.events.Count(ctx, store.EventFilter{From: &today}) }},
		{&st.PendingTasks, func() (int64, error) { return d.tasks.tasks.Count(ctx, store.TaskFilter{Completed: &open}) }},
		{&st.CompletedTasks, func() (int64, error) { return d.tasks.tasks.Count(ctx, store.TaskFilter{Completed: &done}) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return model.DashboardStats{}, err
		}
	}

	var prevTotal, prevUpcoming, prevPending, prevCompleted int64
	previous := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&prevTotal, func() (int64, error) { return d.events.events.Count(ctx, store.EventFilter{Before: &monthAgo}) }},
		{&prevUpcoming, func() (int64, error) { return d.events.events.Count(ctx, store.EventFilter{From: &monthAgo}) }},
		{&prevPending, func() (int64, error) {
			return d.tasks.tasks.Count(ctx, store.TaskFilter{Completed: &open, DueBefore: &monthAgo})
		}},
		{&prevCompleted, func() (int64, error) {
			return d.tasks.tasks.Count(ctx, store.TaskFilter{Completed: &done, CompletedBefore: &monthAgo})
		}},
	}
	for _, c := range previous {
		if *c.dst, err = c.fn(); err != nil {
			return model.DashboardStats{}, err
		}
	}

	st.TotalEventsTrend = Trend(prevTotal, st.TotalEvents)
	st.UpcomingEventsTrend = Trend(prevUpcoming, st.UpcomingEvents)
	st.PendingTasksTrend = Trend(prevPending, st.PendingTasks)
	st.CompletedTasksTrend = Trend(prevCompleted, st.CompletedTasks)
	return st, nil
}

// Trend is the percentage change from old to cur, truncated toward zero.
// Growth from zero counts as 100%.
func Trend(old, cur int64) int {
	if old == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return int(float64(cur-old) / float64(old) * 100)
}

func (d *Dashboard) UpcomingEvents(ctx context.Context) ([]model.Event, error) {
	return d.events.Upcoming(ctx)
}

// RecentTasks returns the newest tasks first.
func (d *Dashboard) RecentTasks(ctx context.Context) ([]model.TaskView, error) {
	views, err := d.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.After(views[j].CreatedAt)
		}
		return views[i].ID > views[j].ID
	})
	if len(views) > RecentTaskLimit {
		views = views[:RecentTaskLimit]
	}
	return views, nil
}

func (d *Dashboard) OverdueTasks(ctx context.Context) ([]model.TaskView, error) {
	return d.tasks.Overdue(ctx)
}
