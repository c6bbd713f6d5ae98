// Package api serves the scheduler over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"evsched/internal/calendar"
	"evsched/internal/schedule"
)

// Services are the backends the handlers call.
type Services struct {
	Events    *schedule.EventService
	Tasks     *schedule.TaskService
	Dashboard *schedule.Dashboard
	Feed      *calendar.Feed
}

type Server struct {
	svc     Services
	addr    string
	origins map[string]struct{}
	logger  *slog.Logger
	mux     *http.ServeMux
	now     func() time.Time
}

type Option func(*Server)

// WithCORSOrigins allows browser calls from the given origins. "*" allows
// any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			s.origins[o] = struct{}{}
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func NewServer(addr string, svc Services, opts ...Option) *Server {
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{
		svc:     svc,
		addr:    addr,
		origins: make(map[string]struct{}),
		logger:  slog.Default(),
		mux:     http.NewServeMux(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.listEvents)
	s.mux.HandleFunc("POST /api/events", s.createEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.getEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.updateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.deleteEvent)
	s.mux.HandleFunc("GET /api/events/status/{status}", s.eventsByStatus)
	s.mux.HandleFunc("GET /api/events/upcoming", s.upcomingEvents)
	s.mux.HandleFunc("GET /api/events/date/{date}", s.eventsByDate)
	s.mux.HandleFunc("GET /api/events/range", s.eventsBetween)
	s.mux.HandleFunc("GET /api/events/search", s.searchEvents)

	s.mux.HandleFunc("GET /api/tasks", s.listTasks)
	s.mux.HandleFunc("POST /api/tasks", s.createTask)
	s.mux.HandleFunc("GET /api/tasks/{id}", s.getTask)
	s.mux.HandleFunc("PUT /api/tasks/{id}", s.updateTask)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.deleteTask)
	s.mux.HandleFunc("PATCH /api/tasks/{id}/toggle", s.toggleTask)
	s.mux.HandleFunc("GET /api/tasks/status/{completed}", s.tasksByCompleted)
	s.mux.HandleFunc("GET /api/tasks/priority/{priority}", s.tasksByPriority)
	s.mux.HandleFunc("GET /api/tasks/event/{eventId}", s.tasksByEvent)
	s.mux.HandleFunc("GET /api/tasks/assignee/{assignee}", s.tasksByAssignee)
	s.mux.HandleFunc("GET /api/tasks/overdue", s.overdueTasks)
	s.mux.HandleFunc("GET /api/tasks/due-today", s.tasksDueToday)
	s.mux.HandleFunc("GET /api/tasks/search", s.searchTasks)

	s.mux.HandleFunc("GET /api/dashboard/stats", s.dashboardStats)
	s.mux.HandleFunc("GET /api/dashboard/upcoming-events", s.dashboardUpcoming)
	s.mux.HandleFunc("GET /api/dashboard/recent-tasks", s.recentTasks)
	s.mux.HandleFunc("GET /api/dashboard/overdue-tasks", s.dashboardOverdue)

	s.mux.HandleFunc("POST /api/slots/check", s.checkSlot)
	s.mux.HandleFunc("GET /api/calendar.ics", s.calendarFeed)
}

// Handler returns the routed handler wrapped in request logging and CORS.
func (s *Server) Handler() http.Handler {
	return s.withRequestLog(s.withCORS(s.mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", "err", err)
		}
	}()

	s.logger.Info("http server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().Format(time.RFC3339),
	})
}
