package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"evsched/internal/model"
)

// SQL is a gorm-backed store. Slot uniqueness is a composite unique index;
// rows with any NULL slot column never collide, which keeps drafts legal.
type SQL struct {
	db     *gorm.DB
	logger *slog.Logger
}

type eventRow struct {
	ID              int64   `gorm:"primaryKey"`
	Title           string  `gorm:"size:255;not null"`
	Description     string  `gorm:"type:text"`
	Date            *string `gorm:"column:event_date;size:10;uniqueIndex:ux_events_slot,priority:1;index"`
	Time            *string `gorm:"column:event_time;size:8;uniqueIndex:ux_events_slot,priority:2"`
	Location        *string `gorm:"size:255;uniqueIndex:ux_events_slot,priority:3"`
	Place           string  `gorm:"size:255"`
	Attendees       *int    `gorm:"column:attendees_count"`
	FoodPreferences string  `gorm:"column:food_preferences;size:50"`
	Status          string  `gorm:"size:16;not null;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (eventRow) TableName() string { return "events" }

type taskRow struct {
	ID             int64   `gorm:"primaryKey"`
	Title          string  `gorm:"size:255;not null"`
	Description    string  `gorm:"type:text"`
	DueDate        *string `gorm:"column:due_date;size:10;index"`
	Priority       string  `gorm:"size:16;not null"`
	Assignee       string  `gorm:"size:100;index"`
	Completed      bool    `gorm:"not null;default:false"`
	CompletionDate *string `gorm:"column:completion_date;size:10"`
	EventID        *int64  `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (taskRow) TableName() string { return "tasks" }

// OpenSQL opens (creating if needed) the SQLite database at dsn and migrates
// the schema.
func OpenSQL(dsn string, logger *slog.Logger) (*SQL, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&eventRow{}, &taskRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", "dsn", dsn)
	return &SQL{db: db, logger: logger}, nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQL) Events() *SQLEvents { return &SQLEvents{db: s.db, logger: s.logger} }
func (s *SQL) Tasks() *SQLTasks   { return &SQLTasks{db: s.db} }

// SQLEvents implements EventStore.
type SQLEvents struct {
	db     *gorm.DB
	logger *slog.Logger
}

func (s *SQLEvents) ExistsWithSlot(ctx context.Context, slot model.Slot, excludeID int64) (bool, error) {
	if !slot.Complete() {
		return false, nil
	}
	q := s.db.WithContext(ctx).Model(&eventRow{}).
		Where("event_date = ? AND event_time = ? AND location = ?", slot.Date.String(), slot.Time.Canonical(), *slot.Location)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLEvents) Save(ctx context.Context, e *model.Event) error {
	err := s.save(ctx, e)
	if errors.Is(err, ErrDuplicateSlot) {
		s.logger.Warn("unique index rejected event", "id", e.ID, "slot", e.Slot().String())
	}
	return err
}

func (s *SQLEvents) save(ctx context.Context, e *model.Event) error {
	row := toEventRow(*e)
	db := s.db.WithContext(ctx)
	if e.ID == 0 {
		if err := db.Create(&row).Error; err != nil {
			return translate(err)
		}
	} else {
		var prev eventRow
		if err := db.First(&prev, e.ID).Error; err != nil {
			return translate(err)
		}
		row.CreatedAt = prev.CreatedAt
		if err := db.Save(&row).Error; err != nil {
			return translate(err)
		}
	}
	*e = fromEventRow(row)
	return nil
}

func (s *SQLEvents) FindByID(ctx context.Context, id int64) (model.Event, error) {
	var row eventRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return model.Event{}, translate(err)
	}
	return fromEventRow(row), nil
}

func (s *SQLEvents) DeleteByID(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&eventRow{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLEvents) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&eventRow{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *SQLEvents) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	var rows []eventRow
	if err := s.filter(ctx, f).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromEventRow(r))
	}
	return out, nil
}

func (s *SQLEvents) Count(ctx context.Context, f EventFilter) (int64, error) {
	var n int64
	err := s.filter(ctx, f).Count(&n).Error
	return n, err
}

func (s *SQLEvents) filter(ctx context.Context, f EventFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&eventRow{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.On != nil {
		q = q.Where("event_date = ?", f.On.String())
	}
	if f.From != nil {
		q = q.Where("event_date >= ?", f.From.String())
	}
	if f.To != nil {
		q = q.Where("event_date <= ?", f.To.String())
	}
	if f.Before != nil {
		q = q.Where("event_date < ?", f.Before.String())
	}
	if f.Title != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(f.Title))
	}
	if f.Location != "" {
		q = q.Where(`LOWER(location) LIKE ? ESCAPE '\'`, likePattern(f.Location))
	}
	return q
}

// SQLTasks implements TaskStore.
type SQLTasks struct {
	db *gorm.DB
}

func (s *SQLTasks) Save(ctx context.Context, t *model.Task) error {
	row := toTaskRow(*t)
	db := s.db.WithContext(ctx)
	if t.ID == 0 {
		if err := db.Create(&row).Error; err != nil {
			return translate(err)
		}
	} else {
		var prev taskRow
		if err := db.First(&prev, t.ID).Error; err != nil {
			return translate(err)
		}
		row.CreatedAt = prev.CreatedAt
		if err := db.Save(&row).Error; err != nil {
			return translate(err)
		}
	}
	*t = fromTaskRow(row)
	return nil
}

func (s *SQLTasks) FindByID(ctx context.Context, id int64) (model.Task, error) {
	var row taskRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return model.Task{}, translate(err)
	}
	return fromTaskRow(row), nil
}

func (s *SQLTasks) DeleteByID(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&taskRow{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLTasks) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&taskRow{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *SQLTasks) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	var rows []taskRow
	if err := s.filter(ctx, f).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromTaskRow(r))
	}
	return out, nil
}

func (s *SQLTasks) Count(ctx context.Context, f TaskFilter) (int64, error) {
	var n int64
	err := s.filter(ctx, f).Count(&n).Error
	return n, err
}

func (s *SQLTasks) filter(ctx context.Context, f TaskFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&taskRow{})
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", string(f.Priority))
	}
	if f.Assignee != "" {
		q = q.Where("assignee = ?", f.Assignee)
	}
	if f.EventID != nil {
		q = q.Where("event_id = ?", *f.EventID)
	}
	if f.DueOn != nil {
		q = q.Where("due_date = ?", f.DueOn.String())
	}
	if f.DueBefore != nil {
		q = q.Where("due_date < ?", f.DueBefore.String())
	}
	if f.CompletedBefore != nil {
		q = q.Where("completion_date < ?", f.CompletedBefore.String())
	}
	if f.Title != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(f.Title))
	}
	return q
}

// translate maps driver errors onto the store's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrDuplicateSlot, err)
	default:
		return err
	}
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func toEventRow(e model.Event) eventRow {
	row := eventRow{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		Place:           e.Place,
		Attendees:       e.Attendees,
		FoodPreferences: e.FoodPreferences,
		Status:          string(e.Status),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Date != nil {
		s := e.Date.String()
		row.Date = &s
	}
	if e.Time != nil {
		s := e.Time.Canonical()
		row.Time = &s
	}
	return row
}

func fromEventRow(r eventRow) model.Event {
	e := model.Event{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		Place:           r.Place,
		Attendees:       r.Attendees,
		FoodPreferences: r.FoodPreferences,
		Status:          model.EventStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Date != nil {
		if d, err := model.ParseDate(*r.Date); err == nil {
			e.Date = &d
		}
	}
	if r.Time != nil {
		if t, err := model.ParseTimeOfDay(*r.Time); err == nil {
			e.Time = &t
		}
	}
	return e
}

func toTaskRow(t model.Task) taskRow {
	return taskRow{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		DueDate:        dateString(t.DueDate),
		Priority:       string(t.Priority),
		Assignee:       t.Assignee,
		Completed:      t.Completed,
		CompletionDate: dateString(t.CompletionDate),
		EventID:        t.EventID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func fromTaskRow(r taskRow) model.Task {
	return model.Task{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		DueDate:        parseDatePtr(r.DueDate),
		Priority:       model.TaskPriority(r.Priority),
		Assignee:       r.Assignee,
		Completed:      r.Completed,
		CompletionDate: parseDatePtr(r.CompletionDate),
		EventID:        r.EventID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func dateString(d *model.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDatePtr(s *string) *model.Date {
	if s == nil {
		return nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}
