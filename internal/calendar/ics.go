// Package calendar renders events as an iCalendar feed.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"evsched/internal/model"
)

const productID = "-//evsched//event scheduler//EN"

// uidSpace namespaces event UIDs so a feed re-export keeps stable UIDs.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:evsched:events"))

// UID is the stable iCalendar UID of an event.
func UID(id int64) string {
	return uuid.NewSHA1(uidSpace, []byte(fmt.Sprintf("event/%d", id))).String() + "@evsched"
}

// Export serializes events with a date and time. Times are floating (no
// zone) since the scheduler stores wall-clock times only.
func Export(events []model.Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("evsched")

	for _, e := range events {
		if e.Date == nil || e.Time == nil {
			continue
		}
		ve := cal.AddEvent(UID(e.ID))
		ve.SetDtStampTime(stamp)
		if !e.CreatedAt.IsZero() {
			ve.SetCreatedTime(e.CreatedAt)
		}
		if !e.UpdatedAt.IsZero() {
			ve.SetModifiedAt(e.UpdatedAt)
		}
		ve.SetProperty(ical.ComponentPropertyDtStart, floating(*e.Date, *e.Time))
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != nil {
			ve.SetLocation(*e.Location)
		}
		ve.SetStatus(status(e.Status))
	}
	return cal.Serialize()
}

func floating(d model.Date, t model.TimeOfDay) string {
	return model.On(d, t, time.UTC).Format("20060102T150405")
}

func status(s model.EventStatus) ical.ObjectStatus {
	switch s {
	case model.StatusConfirmed:
		return ical.ObjectStatusConfirmed
	case model.StatusCancelled:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusTentative
	}
}

// EventLister is what the feed reads from.
type EventLister interface {
	List(ctx context.Context) ([]model.Event, error)
}

// Feed caches the rendered calendar until Invalidate is called or the TTL
// passes.
type Feed struct {
	events EventLister
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	body    []byte
	builtAt time.Time
}

const DefaultTTL = 5 * time.Minute

func NewFeed(events EventLister, ttl time.Duration, logger *slog.Logger) *Feed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{events: events, ttl: ttl, logger: logger, now: time.Now}
}

// ICS returns the current feed body.
func (f *Feed) ICS(ctx context.Context) ([]byte, error) {
	now := f.now()
	f.mu.RLock()
	body, builtAt := f.body, f.builtAt
	f.mu.RUnlock()
	if body != nil && now.Sub(builtAt) < f.ttl {
		return body, nil
	}

	events, err := f.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	body = []byte(Export(events, now))

	f.mu.Lock()
	f.body, f.builtAt = body, now
	f.mu.Unlock()
	f.logger.Debug("calendar feed rebuilt", "events", len(events), "bytes", len(body))
	return body, nil
}

// Invalidate drops the cached body.
func (f *Feed) Invalidate() {
	f.mu.Lock()
	f.body = nil
	f.mu.Unlock()
}
