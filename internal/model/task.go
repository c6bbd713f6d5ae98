package model

import (
	"fmt"
	"time"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParseTaskPriority(s string) (TaskPriority, error) {
	p := TaskPriority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown task priority %q", s)
	}
	return p, nil
}

// Task is a unit of work, optionally attached to an event.
type Task struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	DueDate        *Date        `json:"dueDate,omitempty"`
	Priority       TaskPriority `json:"priority"`
	Assignee       string       `json:"assignee,omitempty"`
	Completed      bool         `json:"completed"`
	CompletionDate *Date        `json:"completionDate,omitempty"`
	EventID        *int64       `json:"eventId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (t Task) Clone() Task {
	out := t
	out.DueDate = clonePtr(t.DueDate)
	out.CompletionDate = clonePtr(t.CompletionDate)
	out.EventID = clonePtr(t.EventID)
	return out
}

// TaskView is a task together with the title of its event, if any.
type TaskView struct {
	Task
	EventTitle string `json:"eventTitle,omitempty"`
}

// DashboardStats aggregates counts and month-over-month trends (percent).
type DashboardStats struct {
	TotalEvents         int64 `json:"totalEvents"`
	UpcomingEvents      int64 `json:"upcomingEvents"`
	PendingTasks        int64 `json:"pendingTasks"`
	CompletedTasks      int64 `json:"completedTasks"`
	TotalEventsTrend    int   `json:"totalEventsTrend"`
	UpcomingEventsTrend int   `json:"upcomingEventsTrend"`
	PendingTasksTrend   int   `json:"pendingTasksTrend"`
	CompletedTasksTrend int   `json:"completedTasksTrend"`
}
