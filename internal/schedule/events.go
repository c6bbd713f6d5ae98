// Package schedule holds the event and task services: validation, slot
// conflict detection with alternative suggestions, and the dashboard
// aggregates.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"evsched/internal/hooks"
	"evsched/internal/model"
	"evsched/internal/store"
	"evsched/internal/suggest"
)

// EventInput carries a create or update request. Nil fields are absent:
// ignored on update, defaulted on create.
type EventInput struct {
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	Date            *model.Date        `json:"date"`
	Time            *model.TimeOfDay   `json:"time"`
	Location        *string            `json:"location"`
	Place           *string            `json:"place"`
	Attendees       *int               `json:"attendees"`
	FoodPreferences *string            `json:"foodPreferences"`
	Status          *model.EventStatus `json:"status"`
}

func (in EventInput) validate(creating bool) error {
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
	if err := maxLenPtr("location", in.Location, 255); err != nil {
		return err
	}
	if err := maxLenPtr("place", in.Place, 255); err != nil {
		return err
	}
	if err := maxLenPtr("foodPreferences", in.FoodPreferences, 50); err != nil {
		return err
	}
	if in.Attendees != nil && *in.Attendees < 0 {
		return invalid("attendees", "must not be negative")
	}
	if in.Status != nil && !in.Status.Valid() {
		return invalid("status", "must be one of PENDING, CONFIRMED, CANCELLED")
	}
	return nil
}

func (in EventInput) apply(e *model.Event) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Date != nil {
		d := *in.Date
		e.Date = &d
	}
	if in.Time != nil {
		t := *in.Time
		e.Time = &t
	}
	if in.Location != nil {
		l := *in.Location
		e.Location = &l
	}
	if in.Place != nil {
		e.Place = *in.Place
	}
	if in.Attendees != nil {
		n := *in.Attendees
		e.Attendees = &n
	}
	if in.FoodPreferences != nil {
		e.FoodPreferences = *in.FoodPreferences
	}
	if in.Status != nil {
		e.Status = *in.Status
	}
}

func maxLen(field, s string, n int) error {
	if utf8.RuneCountInString(s) > n {
		return invalid(field, "must be at most %d characters", n)
	}
	return nil
}

func maxLenPtr(field string, s *string, n int) error {
	if s == nil {
		return nil
	}
	return maxLen(field, *s, n)
}

// EventService creates, updates and queries events. A create or update
// either saves the event or fails with *ConflictError when the slot is
// taken, never both.
type EventService struct {
	events    store.EventStore
	tasks     store.TaskStore
	checker   *ConflictChecker
	suggester suggest.Provider
	timeout   time.Duration
	hooks     *hooks.Chain
	logger    *slog.Logger
	now       func() time.Time
}

type EventOption func(*EventService)

func WithSuggester(p suggest.Provider) EventOption {
	return func(s *EventService) {
		s.suggester = p
	}
}

// WithSuggestTimeout bounds each suggestion call. Zero means
// suggest.DefaultTimeout.
func WithSuggestTimeout(d time.Duration) EventOption {
	return func(s *EventService) {
		s.timeout = d
	}
}

func WithHooks(c *hooks.Chain) EventOption {
	return func(s *EventService) {
		s.hooks = c
	}
}

// WithTaskStore makes Delete remove the event's tasks as well.
func WithTaskStore(t store.TaskStore) EventOption {
	return func(s *EventService) {
		s.tasks = t
	}
}

func WithLogger(l *slog.Logger) EventOption {
	return func(s *EventService) {
		s.logger = l
	}
}

func WithClock(now func() time.Time) EventOption {
	return func(s *EventService) {
		s.now = now
	}
}

func NewEventService(events store.EventStore, opts ...EventOption) *EventService {
	s := &EventService{
		events:    events,
		checker:   NewConflictChecker(events),
		suggester: suggest.Noop{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.suggester = suggest.Guard(s.suggester, s.timeout, s.logger)
	return s
}

func (s *EventService) Create(ctx context.Context, in EventInput) (model.Event, error) {
	if err := in.validate(true); err != nil {
		return model.Event{}, err
	}
	e := model.Event{Status: model.StatusPending}
	in.apply(&e)
	s.logger.Info("creating event", "title", e.Title)

	if err := s.ensureFree(ctx, e, 0); err != nil {
		return model.Event{}, err
	}
	if err := s.events.Save(ctx, &e); err != nil {
		return model.Event{}, s.saveError(ctx, e, err)
	}
	s.hooks.Notify(ctx, s.logger, &hooks.Notice{Kind: hooks.KindCreated, EventID: e.ID, Title: e.Title, Slot: e.Slot()})
	return e, nil
}

// Update overwrites the fields present in the request. The conflict check
// runs on the resulting slot and excludes the event itself.
func (s *EventService) Update(ctx context.Context, id int64, in EventInput) (model.Event, error) {
	if err := in.validate(false); err != nil {
		return model.Event{}, err
	}
	e, err := s.find(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	in.apply(&e)
	s.logger.Info("updating event", "id", id)

	if err := s.ensureFree(ctx, e, id); err != nil {
		return model.Event{}, err
	}
	if err := s.events.Save(ctx, &e); err != nil {
		return model.Event{}, s.saveError(ctx, e, err)
	}
	s.hooks.Notify(ctx, s.logger, &hooks.Notice{Kind: hooks.KindUpdated, EventID: e.ID, Title: e.Title, Slot: e.Slot()})
	return e, nil
}

// Delete removes the event and then, when a task store is configured, its
// tasks. A failed event delete leaves the tasks untouched.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	e, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.events.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "event", ID: id}
		}
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	s.logger.Info("deleted event", "id", id)
	s.hooks.Notify(ctx, s.logger, &hooks.Notice{Kind: hooks.KindDeleted, EventID: id, Title: e.Title, Slot: e.Slot()})
	return s.deleteTasksOf(ctx, id)
}

func (s *EventService) deleteTasksOf(ctx context.Context, id int64) error {
	if s.tasks == nil {
		return nil
	}
	tasks, err := s.tasks.List(ctx, store.TaskFilter{EventID: &id})
	if err != nil {
		return fmt.Errorf("list tasks of event %d: %w", id, err)
	}
	for _, t := range tasks {
		if err := s.tasks.DeleteByID(ctx, t.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("task left behind by event delete", "event_id", id, "task_id", t.ID, "err", err)
			return fmt.Errorf("delete task %d: %w", t.ID, err)
		}
	}
	return nil
}

// CheckSlot reports whether slot is taken without saving anything. It
// returns a nil error and a nil report when the slot is free.
func (s *EventService) CheckSlot(ctx context.Context, slot model.Slot, excludeID int64) (*ConflictError, error) {
	if !slot.Complete() {
		return nil, invalid("slot", "date, time and location are required")
	}
	taken, err := s.checker.HasConflict(ctx, slot, excludeID)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if !taken {
		return nil, nil
	}
	return s.conflict(ctx, slot, nil), nil
}

func (s *EventService) ensureFree(ctx context.Context, e model.Event, excludeID int64) error {
	slot := e.Slot()
	taken, err := s.checker.HasConflict(ctx, slot, excludeID)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if !taken {
		return nil
	}
	ce := s.conflict(ctx, slot, nil)
	s.notifyConflict(ctx, e, ce)
	return ce
}

// saveError turns a storage uniqueness violation into the same conflict a
// pre-check would have produced.
func (s *EventService) saveError(ctx context.Context, e model.Event, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicateSlot):
		s.logger.Warn("slot taken between check and save", "slot", e.Slot().String())
		ce := s.conflict(ctx, e.Slot(), err)
		s.notifyConflict(ctx, e, ce)
		return ce
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Entity: "event", ID: e.ID}
	default:
		return fmt.Errorf("save event: %w", err)
	}
}

func (s *EventService) conflict(ctx context.Context, slot model.Slot, cause error) *ConflictError {
	suggestions := s.suggester.Suggest(ctx, *slot.Location, *slot.Date, *slot.Time)
	if len(suggestions) > suggest.MaxSuggestions {
		suggestions = suggestions[:suggest.MaxSuggestions]
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return &ConflictError{
		Slot:        slot,
		Message:     ConflictMessage(slot),
		Suggestions: suggestions,
		cause:       cause,
	}
}

func (s *EventService) notifyConflict(ctx context.Context, e model.Event, ce *ConflictError) {
	s.hooks.Notify(ctx, s.logger, &hooks.Notice{
		Kind:        hooks.KindConflict,
		EventID:     e.ID,
		Title:       e.Title,
		Slot:        ce.Slot,
		Message:     ce.Message,
		Suggestions: ce.Suggestions,
	})
}

func (s *EventService) find(ctx context.Context, id int64) (model.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Event{}, &NotFoundError{Entity: "event", ID: id}
	}
	return e, err
}

func (s *EventService) Get(ctx context.Context, id int64) (model.Event, error) {
	return s.find(ctx, id)
}

func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx, store.EventFilter{})
}

func (s *EventService) ByStatus(ctx context.Context, status model.EventStatus) ([]model.Event, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	return s.events.List(ctx, store.EventFilter{Status: status})
}

// Upcoming returns events dated today or later, ordered by date then time.
func (s *EventService) Upcoming(ctx context.Context) ([]model.Event, error) {
	today := model.DateOf(s.now())
	out, err := s.events.List(ctx, store.EventFilter{From: &today})
	if err != nil {
		return nil, err
	}
	SortChronologically(out)
	return out, nil
}

func (s *EventService) ByDate(ctx context.Context, d model.Date) ([]model.Event, error) {
	return s.events.List(ctx, store.EventFilter{On: &d})
}

// Between returns events dated within [from, to].
func (s *EventService) Between(ctx context.Context, from, to model.Date) ([]model.Event, error) {
	if to.Before(from) {
		return nil, invalid("to", "must not be before from")
	}
	out, err := s.events.List(ctx, store.EventFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	SortChronologically(out)
	return out, nil
}

func (s *EventService) SearchTitle(ctx context.Context, q string) ([]model.Event, error) {
	if strings.TrimSpace(q) == "" {
		return nil, invalid("title", "search term is required")
	}
	return s.events.List(ctx, store.EventFilter{Title: q})
}

func (s *EventService) SearchLocation(ctx context.Context, q string) ([]model.Event, error) {
	if strings.TrimSpace(q) == "" {
		return nil, invalid("location", "search term is required")
	}
	return s.events.List(ctx, store.EventFilter{Location: q})
}

// SortChronologically orders events by date then time. Events missing a
// date or time sort after those that have one; ties keep ID order.
func SortChronologically(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if c := compareDatePtr(a.Date, b.Date); c != 0 {
			return c < 0
		}
		if c := compareTimePtr(a.Time, b.Time); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func compareDatePtr(a, b *model.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func compareTimePtr(a, b *model.TimeOfDay) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
