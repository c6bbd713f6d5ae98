package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"evsched/internal/model"
	"evsched/internal/store"
)

// TaskInput carries a task create or update request. Nil fields are absent.
type TaskInput struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	DueDate     *model.Date         `json:"dueDate"`
	Priority    *model.TaskPriority `json:"priority"`
	Assignee    *string             `json:"assignee"`
	Completed   *bool               `json:"completed"`
	EventID     *int64              `json:"eventId"`
}

func (in TaskInput) validate(creating bool) error {
	if creating && in.Title == nil {
		return invalid("title", "is required")
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return invalid("title", "must not be blank")
		}
		if err := maxLen("title", *in.Title, 255); err != nil {
			return err
		}
	}
	if err := maxLenPtr("description", in.Description, 1000); err != nil {
		return err
	}
	if err := maxLenPtr("assignee", in.Assignee, 100); err != nil {
		return err
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return invalid("priority", "must be one of LOW, MEDIUM, HIGH")
	}
	return nil
}

func (in TaskInput) apply(t *model.Task) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Assignee != nil {
		t.Assignee = *in.Assignee
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if in.EventID != nil {
		id := *in.EventID
		t.EventID = &id
	}
}

// TaskService manages tasks and keeps completion dates in step with the
// completed flag.
type TaskService struct {
	tasks  store.TaskStore
	events store.EventStore
	logger *slog.Logger
	now    func() time.Time
}

type TaskOption func(*TaskService)

func WithTaskLogger(l *slog.Logger) TaskOption {
	return func(s *TaskService) {
		s.logger = l
	}
}

func WithTaskClock(now func() time.Time) TaskOption {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(tasks store.TaskStore, events store.EventStore, opts ...TaskOption) *TaskService {
	s := &TaskService{
		tasks:  tasks,
		events: events,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) today() model.Date {
	return model.DateOf(s.now())
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (model.TaskView, error) {
	if err := in.validate(true); err != nil {
		return model.TaskView{}, err
	}
	if err := s.requireEvent(ctx, in.EventID); err != nil {
		return model.TaskView{}, err
	}
	t := model.Task{Priority: model.PriorityMedium}
	in.apply(&t)
	if t.Completed {
		d := s.today()
		t.CompletionDate = &d
	}
	s.logger.Info("creating task", "title", t.Title)
	if err := s.tasks.Save(ctx, &t); err != nil {
		return model.TaskView{}, fmt.Errorf("save task: %w", err)
	}
	return s.view(ctx, t), nil
}

// Update overwrites the present fields. The completion date is set when the
// task becomes completed and cleared when it stops being completed.
func (s *TaskService) Update(ctx context.Context, id int64, in TaskInput) (model.TaskView, error) {
	if err := in.validate(false); err != nil {
		return model.TaskView{}, err
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return model.TaskView{}, err
	}
	if err := s.requireEvent(ctx, in.EventID); err != nil {
		return model.TaskView{}, err
	}
	was := t.Completed
	in.apply(&t)
	s.syncCompletion(&t, was)
	s.logger.Info("updating task", "id", id)
	if err := s.save(ctx, &t); err != nil {
		return model.TaskView{}, err
	}
	return s.view(ctx, t), nil
}

// Toggle flips the completed flag.
func (s *TaskService) Toggle(ctx context.Context, id int64) (model.TaskView, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return model.TaskView{}, err
	}
	was := t.Completed
	t.Completed = !was
	s.syncCompletion(&t, was)
	s.logger.Info("toggled task", "id", id, "completed", t.Completed)
	if err := s.save(ctx, &t); err != nil {
		return model.TaskView{}, err
	}
	return s.view(ctx, t), nil
}

func (s *TaskService) syncCompletion(t *model.Task, was bool) {
	switch {
	case t.Completed && !was:
		d := s.today()
		t.CompletionDate = &d
	case !t.Completed:
		t.CompletionDate = nil
	}
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.tasks.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "task", ID: id}
		}
		return err
	}
	s.logger.Info("deleted task", "id", id)
	return nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.TaskView, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return model.TaskView{}, err
	}
	return s.view(ctx, t), nil
}

func (s *TaskService) List(ctx context.Context) ([]model.TaskView, error) {
	return s.list(ctx, store.TaskFilter{})
}

func (s *TaskService) ByCompleted(ctx context.Context, completed bool) ([]model.TaskView, error) {
	return s.list(ctx, store.TaskFilter{Completed: &completed})
}

func (s *TaskService) ByPriority(ctx context.Context, p model.TaskPriority) ([]model.TaskView, error) {
	if !p.Valid() {
		return nil, invalid("priority", "unknown priority %q", p)
	}
	return s.list(ctx, store.TaskFilter{Priority: p})
}

func (s *TaskService) ByAssignee(ctx context.Context, assignee string) ([]model.TaskView, error) {
	if strings.TrimSpace(assignee) == "" {
		return nil, invalid("assignee", "is required")
	}
	return s.list(ctx, store.TaskFilter{Assignee: assignee})
}

func (s *TaskService) ByEvent(ctx context.Context, eventID int64) ([]model.TaskView, error) {
	return s.list(ctx, store.TaskFilter{EventID: &eventID})
}

// Overdue lists open tasks whose due date has passed.
func (s *TaskService) Overdue(ctx context.Context) ([]model.TaskView, error) {
	today := s.today()
	open := false
	return s.list(ctx, store.TaskFilter{Completed: &open, DueBefore: &today})
}

func (s *TaskService) DueToday(ctx context.Context) ([]model.TaskView, error) {
	today := s.today()
	return s.list(ctx, store.TaskFilter{DueOn: &today})
}

func (s *TaskService) SearchTitle(ctx context.Context, q string) ([]model.TaskView, error) {
	if strings.TrimSpace(q) == "" {
		return nil, invalid("title", "search term is required")
	}
	return s.list(ctx, store.TaskFilter{Title: q})
}

func (s *TaskService) find(ctx context.Context, id int64) (model.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Task{}, &NotFoundError{Entity: "task", ID: id}
	}
	return t, err
}

func (s *TaskService) save(ctx context.Context, t *model.Task) error {
	err := s.tasks.Save(ctx, t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Entity: "task", ID: t.ID}
	default:
		return fmt.Errorf("save task: %w", err)
	}
}

func (s *TaskService) requireEvent(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := s.events.ExistsByID(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Entity: "event", ID: *id}
	}
	return nil
}

func (s *TaskService) list(ctx context.Context, f store.TaskFilter) ([]model.TaskView, error) {
	tasks, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, tasks), nil
}

func (s *TaskService) view(ctx context.Context, t model.Task) model.TaskView {
	return s.views(ctx, []model.Task{t})[0]
}

// views attaches event titles, looking each event up once. A dangling event
// id leaves the title empty.
func (s *TaskService) views(ctx context.Context, tasks []model.Task) []model.TaskView {
	titles := make(map[int64]string)
	out := make([]model.TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := model.TaskView{Task: t}
		if t.EventID != nil {
			title, ok := titles[*t.EventID]
			if !ok {
				if e, err := s.events.FindByID(ctx, *t.EventID); err == nil {
					title = e.Title
				}
				titles[*t.EventID] = title
			}
			v.EventTitle = title
		}
		out = append(out, v)
	}
	return out
}
